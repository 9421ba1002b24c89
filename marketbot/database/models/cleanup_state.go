package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CleanupState is a single-row table carrying the timestamp of the last
// retention pass, so restarts do not re-run it early.
type CleanupState struct {
	bun.BaseModel `bun:"table:cleanup_state,alias:cs"`

	ID          int32     `bun:"id,pk"`
	LastCleanup time.Time `bun:"last_cleanup,notnull"`
}
