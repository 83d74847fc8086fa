package postgresadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pleito/contexts/electoral-process/tally-bridge/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the bridge's processed-event set.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// ReserveEvent inserts the (consumer, event) pair; a conflicting insert
// means another worker already applied it.
func (r *Repository) ReserveEvent(ctx context.Context, consumer string, eventID string) (bool, error) {
	row := processedEventModel{
		Consumer:   strings.TrimSpace(consumer),
		EventID:    strings.TrimSpace(eventID),
		ReservedAt: time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "consumer"}, {Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, r.logError("bridge_repo_reserve_failed", result.Error,
			"event_id", row.EventID,
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ReleaseEvent(ctx context.Context, consumer string, eventID string) error {
	result := r.db.WithContext(ctx).
		Where("consumer = ?", strings.TrimSpace(consumer)).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Delete(&processedEventModel{})
	if result.Error != nil {
		return r.logError("bridge_repo_release_failed", result.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "electoral-process/tally-bridge",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("bridge repository operation failed", fields...)
	return err
}

type processedEventModel struct {
	Consumer   string    `gorm:"column:consumer;primaryKey"`
	EventID    string    `gorm:"column:event_id;primaryKey"`
	ReservedAt time.Time `gorm:"column:reserved_at"`
}

func (processedEventModel) TableName() string {
	return "bridge_processed_events"
}

var _ ports.EventDedup = (*Repository)(nil)
