// Package archive exports sale-history rows to object storage before the
// retention pass deletes them, so long-term market data survives the
// rolling window.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"marketbot/marketbot/database/repositories"
)

type Config struct {
	Enabled   bool   `toml:"enabled"`
	Key       string `toml:"key"`
	Secret    string `toml:"secret"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	KeyPrefix string `toml:"key_prefix"`
}

// Archiver uploads doomed history rows as one JSON document per
// retention pass.
type Archiver struct {
	client  *s3.Client
	history repositories.HistoryRepository
	bucket  string
	prefix  string
}

func New(cfg Config, history repositories.HistoryRepository) (*Archiver, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	return &Archiver{
		client:  s3.NewFromConfig(awsCfg),
		history: history,
		bucket:  cfg.Bucket,
		prefix:  cfg.KeyPrefix,
	}, nil
}

type archivedSale struct {
	ItemID  int64     `json:"item_id"`
	HouseID int32     `json:"house_id"`
	Price   int64     `json:"price"`
	Kind    string    `json:"kind"`
	SoldAt  time.Time `json:"sold_at"`
}

// Archive exports every history row older than the cutoff. An empty
// window uploads nothing and succeeds.
func (a *Archiver) Archive(ctx context.Context, olderThan time.Time) error {
	rows, err := a.history.OlderThan(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to load rows to archive: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	sales := make([]archivedSale, len(rows))
	for i, row := range rows {
		sales[i] = archivedSale{
			ItemID:  row.ItemID,
			HouseID: row.HouseID,
			Price:   row.Price,
			Kind:    string(row.Kind),
			SoldAt:  row.SoldAt,
		}
	}

	body, err := json.Marshal(sales)
	if err != nil {
		return fmt.Errorf("failed to marshal archive document: %w", err)
	}

	key := fmt.Sprintf("%s/sale-history-%s.json", a.prefix, olderThan.UTC().Format("2006-01-02"))
	contentType := "application/json"
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	slog.Info("Archived sale history",
		slog.Int("rows", len(sales)),
		slog.String("key", key))
	return nil
}
