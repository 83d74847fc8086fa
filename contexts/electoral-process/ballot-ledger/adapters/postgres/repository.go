package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	domainerrors "pleito/contexts/electoral-process/ballot-ledger/domain/errors"
	"pleito/contexts/electoral-process/ballot-ledger/ports"
	"pleito/internal/shared/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

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

// CreateBallot relies on the partial unique index
// uq_ballots_election_elector_active ON (election_id, elector_key) WHERE
// kind <> 'voided'; a losing concurrent insert surfaces SQLSTATE 23505.
func (r *Repository) CreateBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateVote
		}
		return r.logError("ledger_repo_create_ballot_failed", err,
			"ballot_id", row.ID,
			"election_id", row.ElectionID,
		)
	}
	return nil
}

func (r *Repository) GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, domainerrors.ErrBallotNotFound
		}
		return entities.Ballot{}, r.logError("ledger_repo_get_ballot_failed", err, "ballot_id", strings.TrimSpace(ballotID))
	}
	return row.toEntity(), nil
}

func (r *Repository) GetActiveBallotByElector(
	ctx context.Context,
	electionID string,
	electorKey string,
) (entities.Ballot, bool, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("elector_key = ?", strings.TrimSpace(electorKey)).
		Where("kind <> ?", string(entities.VoteKindVoided)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, false, nil
		}
		return entities.Ballot{}, false, r.logError("ledger_repo_get_active_ballot_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListBallotsByElection(ctx context.Context, electionID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_ballots_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) VoidBallot(
	ctx context.Context,
	ballotID string,
	reasonCaseID string,
	voidedAt time.Time,
) (entities.Ballot, error) {
	ballotID = strings.TrimSpace(ballotID)
	var updated ballotModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row ballotModel
		if err := tx.Where("id = ?", ballotID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrBallotNotFound
			}
			return err
		}
		if row.Kind == string(entities.VoteKindVoided) {
			return domainerrors.ErrBallotAlreadyVoided
		}
		result := tx.Model(&ballotModel{}).
			Where("id = ?", ballotID).
			Where("kind <> ?", string(entities.VoteKindVoided)).
			Updates(map[string]any{
				"original_kind":     row.Kind,
				"kind":              string(entities.VoteKindVoided),
				"voided_by_case_id": strings.TrimSpace(reasonCaseID),
				"voided_at":         voidedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrBallotAlreadyVoided
		}
		return tx.Where("id = ?", ballotID).First(&updated).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrBallotNotFound) || errors.Is(err, domainerrors.ErrBallotAlreadyVoided) {
			return entities.Ballot{}, err
		}
		return entities.Ballot{}, r.logError("ledger_repo_void_ballot_failed", err, "ballot_id", ballotID)
	}
	return updated.toEntity(), nil
}

func (r *Repository) VoidSlateBallots(
	ctx context.Context,
	slateID string,
	castAfter *time.Time,
	reasonCaseID string,
	voidedAt time.Time,
) ([]entities.Ballot, error) {
	slateID = strings.TrimSpace(slateID)
	var updated []ballotModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := tx.Model(&ballotModel{}).
			Where("slate_id = ?", slateID).
			Where("kind <> ?", string(entities.VoteKindVoided))
		if castAfter != nil {
			scope = scope.Where("cast_at > ?", castAfter.UTC())
		}

		var rows []ballotModel
		if err := scope.Order("cast_at ASC").Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			result := tx.Model(&ballotModel{}).
				Where("id = ?", row.ID).
				Where("kind <> ?", string(entities.VoteKindVoided)).
				Updates(map[string]any{
					"original_kind":     row.Kind,
					"kind":              string(entities.VoteKindVoided),
					"voided_by_case_id": strings.TrimSpace(reasonCaseID),
					"voided_at":         voidedAt.UTC(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}
			row.OriginalKind = row.Kind
			row.Kind = string(entities.VoteKindVoided)
			row.VoidedByCaseID = strings.TrimSpace(reasonCaseID)
			at := voidedAt.UTC()
			row.VoidedAt = &at
			updated = append(updated, row)
		}
		return nil
	})
	if err != nil {
		return nil, r.logError("ledger_repo_void_slate_ballots_failed", err, "slate_id", slateID)
	}
	items := make([]entities.Ballot, 0, len(updated))
	for _, row := range updated {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("ledger_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetSlate(ctx context.Context, slateID string) (entities.Slate, error) {
	var row slateModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(slateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Slate{}, domainerrors.ErrSlateNotFound
		}
		return entities.Slate{}, r.logError("ledger_repo_get_slate_failed", err, "slate_id", strings.TrimSpace(slateID))
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateSlateStatus(
	ctx context.Context,
	slateID string,
	status entities.SlateStatus,
	updatedAt time.Time,
) (entities.Slate, error) {
	slateID = strings.TrimSpace(slateID)
	result := r.db.WithContext(ctx).
		Model(&slateModel{}).
		Where("id = ?", slateID).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return entities.Slate{}, r.logError("ledger_repo_update_slate_status_failed", result.Error, "slate_id", slateID)
	}
	if result.RowsAffected == 0 {
		return entities.Slate{}, domainerrors.ErrSlateNotFound
	}
	return r.GetSlate(ctx, slateID)
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("ledger_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBallotNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "electoral-process/ballot-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ballot ledger repository operation failed", fields...)
	return err
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type ballotModel struct {
	ID             string     `gorm:"column:id;primaryKey"`
	ElectionID     string     `gorm:"column:election_id"`
	ElectorKey     string     `gorm:"column:elector_key"`
	SlateID        *string    `gorm:"column:slate_id"`
	Kind           string     `gorm:"column:kind"`
	OriginalKind   string     `gorm:"column:original_kind"`
	CastAt         time.Time  `gorm:"column:cast_at"`
	ReceiptHash    string     `gorm:"column:receipt_hash"`
	VoidedByCaseID string     `gorm:"column:voided_by_case_id"`
	VoidedAt       *time.Time `gorm:"column:voided_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	row := ballotModel{
		ID:             strings.TrimSpace(ballot.BallotID),
		ElectionID:     strings.TrimSpace(ballot.ElectionID),
		ElectorKey:     strings.TrimSpace(ballot.ElectorKey),
		Kind:           string(ballot.Kind),
		OriginalKind:   string(ballot.OriginalKind),
		CastAt:         ballot.CastAt.UTC(),
		ReceiptHash:    strings.TrimSpace(ballot.ReceiptHash),
		VoidedByCaseID: strings.TrimSpace(ballot.VoidedByCaseID),
	}
	if strings.TrimSpace(ballot.SlateID) != "" {
		slateID := strings.TrimSpace(ballot.SlateID)
		row.SlateID = &slateID
	}
	if ballot.VoidedAt != nil {
		at := ballot.VoidedAt.UTC()
		row.VoidedAt = &at
	}
	if row.CastAt.IsZero() {
		row.CastAt = time.Now().UTC()
	}
	return row
}

func (m ballotModel) toEntity() entities.Ballot {
	slateID := ""
	if m.SlateID != nil {
		slateID = strings.TrimSpace(*m.SlateID)
	}
	var voidedAt *time.Time
	if m.VoidedAt != nil {
		at := m.VoidedAt.UTC()
		voidedAt = &at
	}
	return entities.Ballot{
		BallotID:       m.ID,
		ElectionID:     m.ElectionID,
		ElectorKey:     m.ElectorKey,
		SlateID:        slateID,
		Kind:           entities.VoteKind(m.Kind),
		OriginalKind:   entities.VoteKind(m.OriginalKind),
		CastAt:         m.CastAt.UTC(),
		ReceiptHash:    m.ReceiptHash,
		VoidedByCaseID: m.VoidedByCaseID,
		VoidedAt:       voidedAt,
	}
}

type electionModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	Phase            string    `gorm:"column:phase"`
	Mode             string    `gorm:"column:voting_mode"`
	VotingStartsAt   time.Time `gorm:"column:voting_starts_at"`
	VotingEndsAt     time.Time `gorm:"column:voting_ends_at"`
	SeatCount        int       `gorm:"column:seat_count"`
	EligibleElectors int       `gorm:"column:eligible_electors"`
}

func (electionModel) TableName() string {
	return "elections"
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:       m.ID,
		Phase:            entities.ElectionPhase(m.Phase),
		Mode:             entities.VotingMode(m.Mode),
		VotingStartsAt:   m.VotingStartsAt.UTC(),
		VotingEndsAt:     m.VotingEndsAt.UTC(),
		SeatCount:        m.SeatCount,
		EligibleElectors: m.EligibleElectors,
	}
}

type slateModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	ElectionID  string    `gorm:"column:election_id"`
	Number      int       `gorm:"column:number"`
	Name        string    `gorm:"column:name"`
	Status      string    `gorm:"column:status"`
	BallotOrder int       `gorm:"column:ballot_order"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (slateModel) TableName() string {
	return "slates"
}

func (m slateModel) toEntity() entities.Slate {
	return entities.Slate{
		SlateID:     m.ID,
		ElectionID:  m.ElectionID,
		Number:      m.Number,
		Name:        m.Name,
		Status:      entities.SlateStatus(m.Status),
		BallotOrder: m.BallotOrder,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "ledger_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.BallotRepository = (*Repository)(nil)
var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
