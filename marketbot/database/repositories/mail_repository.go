package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"marketbot/marketbot/database/models"
)

type MailRepository interface {
	DB() *bun.DB
	Create(ctx context.Context, msg *models.MailMessage) error
	CreateWithTx(ctx context.Context, tx bun.Tx, msg *models.MailMessage) error
	GetByRecipient(ctx context.Context, recipientID int64, limit int) ([]*models.MailMessage, error)
}

type mailRepository struct {
	db *bun.DB
}

func NewMailRepository(db *bun.DB) MailRepository {
	return &mailRepository{db: db}
}

func (r *mailRepository) DB() *bun.DB {
	return r.db
}

func (r *mailRepository) Create(ctx context.Context, msg *models.MailMessage) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	_, err := r.db.NewInsert().Model(msg).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create mail message: %w", err)
	}
	return nil
}

func (r *mailRepository) CreateWithTx(ctx context.Context, tx bun.Tx, msg *models.MailMessage) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	_, err := tx.NewInsert().Model(msg).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create mail message: %w", err)
	}
	return nil
}

func (r *mailRepository) GetByRecipient(ctx context.Context, recipientID int64, limit int) ([]*models.MailMessage, error) {
	var messages []*models.MailMessage

	err := r.db.NewSelect().
		Model(&messages).
		Where("recipient_id = ?", recipientID).
		Order("sent_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get mail messages: %w", err)
	}
	return messages, nil
}
