package postgresadapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pleito/contexts/electoral-process/tally-engine/domain/entities"
	domainerrors "pleito/contexts/electoral-process/tally-engine/domain/errors"
	"pleito/contexts/electoral-process/tally-engine/ports"
	"pleito/internal/shared/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// tallyBlockingStatuses are the case statuses that can still alter a tally:
// anything before a terminal ruling, plus an open appeal window.
var tallyBlockingStatuses = []string{
	"received",
	"under_analysis",
	"admissibility_accepted",
	"awaiting_defense",
	"defense_submitted",
	"defense_not_submitted",
	"awaiting_judgment",
	"awaiting_appeal",
	"appeal_filed",
}

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

func (r *Repository) GetElectionInfo(ctx context.Context, electionID string) (entities.ElectionInfo, error) {
	var row electionProjection
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ElectionInfo{}, domainerrors.ErrElectionNotFound
		}
		return entities.ElectionInfo{}, r.logError("tally_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return entities.ElectionInfo{
		ElectionID:       row.ID,
		SeatCount:        row.SeatCount,
		EligibleElectors: row.EligibleElectors,
	}, nil
}

func (r *Repository) ListSlates(ctx context.Context, electionID string) ([]entities.SlateInfo, error) {
	var rows []slateProjection
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("ballot_order ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_slates_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.SlateInfo, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.SlateInfo{
			SlateID:     row.ID,
			Number:      row.Number,
			Name:        row.Name,
			BallotOrder: row.BallotOrder,
		})
	}
	return items, nil
}

// SnapshotBallots reads the ledger inside a repeatable-read transaction so
// votes arriving mid-tally are either fully in or fully out of the snapshot.
func (r *Repository) SnapshotBallots(ctx context.Context, electionID string) (ports.BallotSnapshot, error) {
	snapshot := ports.BallotSnapshot{TakenAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []ballotProjection
		if err := tx.Where("election_id = ?", strings.TrimSpace(electionID)).
			Order("cast_at ASC").
			Find(&rows).Error; err != nil {
			return err
		}
		snapshot.Ballots = make([]entities.BallotRecord, 0, len(rows))
		for _, row := range rows {
			slateID := ""
			if row.SlateID != nil {
				slateID = *row.SlateID
			}
			snapshot.Ballots = append(snapshot.Ballots, entities.BallotRecord{
				Kind:    row.Kind,
				SlateID: slateID,
			})
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return ports.BallotSnapshot{}, r.logError("tally_repo_snapshot_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return snapshot, nil
}

func (r *Repository) HasTallyBlockingCases(ctx context.Context, electionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&caseProjection{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		// Member cases cannot alter a tally; only slate and result
		// subjects hold up finalization.
		Where("subject_type <> ?", "member").
		Where("status IN ?", tallyBlockingStatuses).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("tally_repo_case_guard_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return count > 0, nil
}

func (r *Repository) CreateResult(ctx context.Context, result entities.Result) error {
	row, err := resultModelFromEntity(result)
	if err != nil {
		return r.logError("tally_repo_encode_result_failed", err, "result_id", result.ResultID)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("tally_repo_create_result_failed", err, "result_id", result.ResultID)
	}
	return nil
}

func (r *Repository) GetResult(ctx context.Context, resultID string) (entities.Result, error) {
	var row resultModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(resultID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Result{}, domainerrors.ErrResultNotFound
		}
		return entities.Result{}, r.logError("tally_repo_get_result_failed", err,
			"result_id", strings.TrimSpace(resultID),
		)
	}
	return row.toEntity()
}

func (r *Repository) GetLatestResult(ctx context.Context, electionID string) (entities.Result, bool, error) {
	var row resultModel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("computed_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Result{}, false, nil
		}
		return entities.Result{}, false, r.logError("tally_repo_latest_result_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	result, convErr := row.toEntity()
	if convErr != nil {
		return entities.Result{}, false, convErr
	}
	return result, true, nil
}

func (r *Repository) ListResults(ctx context.Context, electionID string) ([]entities.Result, error) {
	var rows []resultModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("computed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_results_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Result, 0, len(rows))
	for _, row := range rows {
		result, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, result)
	}
	return items, nil
}

func (r *Repository) InvalidatePartialResults(
	ctx context.Context,
	electionID string,
	caseID string,
	at time.Time,
) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&resultModel{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("kind = ?", string(entities.ResultKindPartial)).
		Where("invalidated = ?", false).
		Updates(map[string]any{
			"invalidated":            true,
			"invalidated_by_case_id": strings.TrimSpace(caseID),
			"invalidated_at":         at.UTC(),
		})
	if result.Error != nil {
		return 0, r.logError("tally_repo_invalidate_partials_failed", result.Error,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("tally_repo_append_outbox_marshal_failed", err, "event_id", envelope.EventID)
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
		return r.logError("tally_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
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
		return nil, r.logError("tally_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("tally_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrResultNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "electoral-process/tally-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("tally repository operation failed", fields...)
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

type electionProjection struct {
	ID               string `gorm:"column:id;primaryKey"`
	SeatCount        int    `gorm:"column:seat_count"`
	EligibleElectors int    `gorm:"column:eligible_electors"`
}

func (electionProjection) TableName() string {
	return "elections"
}

type slateProjection struct {
	ID          string `gorm:"column:id;primaryKey"`
	ElectionID  string `gorm:"column:election_id"`
	Number      int    `gorm:"column:number"`
	Name        string `gorm:"column:name"`
	BallotOrder int    `gorm:"column:ballot_order"`
}

func (slateProjection) TableName() string {
	return "slates"
}

type ballotProjection struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id"`
	SlateID    *string   `gorm:"column:slate_id"`
	Kind       string    `gorm:"column:kind"`
	CastAt     time.Time `gorm:"column:cast_at"`
}

func (ballotProjection) TableName() string {
	return "ballots"
}

type caseProjection struct {
	ID         string `gorm:"column:id;primaryKey"`
	ElectionID string `gorm:"column:election_id"`
	Status     string `gorm:"column:status"`
}

func (caseProjection) TableName() string {
	return "adjudication_cases"
}

type resultModel struct {
	ID                  string     `gorm:"column:id;primaryKey"`
	ElectionID          string     `gorm:"column:election_id"`
	Kind                string     `gorm:"column:kind"`
	ComputedAt          time.Time  `gorm:"column:computed_at"`
	EligibleElectors    int        `gorm:"column:eligible_electors"`
	TotalBallots        int        `gorm:"column:total_ballots"`
	Voters              int        `gorm:"column:voters"`
	SlateVotes          int        `gorm:"column:slate_votes"`
	BlankVotes          int        `gorm:"column:blank_votes"`
	NullVotes           int        `gorm:"column:null_votes"`
	VoidedBallots       int        `gorm:"column:voided_ballots"`
	ParticipationPct    float64    `gorm:"column:participation_pct"`
	AbstentionPct       float64    `gorm:"column:abstention_pct"`
	Lines               []byte     `gorm:"column:lines"`
	SupersedesID        string     `gorm:"column:supersedes_id"`
	Invalidated         bool       `gorm:"column:invalidated"`
	InvalidatedByCaseID string     `gorm:"column:invalidated_by_case_id"`
	InvalidatedAt       *time.Time `gorm:"column:invalidated_at"`
}

func (resultModel) TableName() string {
	return "tally_results"
}

func resultModelFromEntity(result entities.Result) (resultModel, error) {
	lines, err := json.Marshal(result.Lines)
	if err != nil {
		return resultModel{}, err
	}
	row := resultModel{
		ID:                  strings.TrimSpace(result.ResultID),
		ElectionID:          strings.TrimSpace(result.ElectionID),
		Kind:                string(result.Kind),
		ComputedAt:          result.ComputedAt.UTC(),
		EligibleElectors:    result.EligibleElectors,
		TotalBallots:        result.TotalBallots,
		Voters:              result.Voters,
		SlateVotes:          result.SlateVotes,
		BlankVotes:          result.BlankVotes,
		NullVotes:           result.NullVotes,
		VoidedBallots:       result.VoidedBallots,
		ParticipationPct:    result.ParticipationPct,
		AbstentionPct:       result.AbstentionPct,
		Lines:               lines,
		SupersedesID:        strings.TrimSpace(result.SupersedesID),
		Invalidated:         result.Invalidated,
		InvalidatedByCaseID: strings.TrimSpace(result.InvalidatedByCaseID),
	}
	if result.InvalidatedAt != nil {
		at := result.InvalidatedAt.UTC()
		row.InvalidatedAt = &at
	}
	return row, nil
}

func (m resultModel) toEntity() (entities.Result, error) {
	var lines []entities.ResultLine
	if len(m.Lines) > 0 {
		if err := json.Unmarshal(m.Lines, &lines); err != nil {
			return entities.Result{}, err
		}
	}
	var invalidatedAt *time.Time
	if m.InvalidatedAt != nil {
		at := m.InvalidatedAt.UTC()
		invalidatedAt = &at
	}
	return entities.Result{
		ResultID:            m.ID,
		ElectionID:          m.ElectionID,
		Kind:                entities.ResultKind(m.Kind),
		ComputedAt:          m.ComputedAt.UTC(),
		EligibleElectors:    m.EligibleElectors,
		TotalBallots:        m.TotalBallots,
		Voters:              m.Voters,
		SlateVotes:          m.SlateVotes,
		BlankVotes:          m.BlankVotes,
		NullVotes:           m.NullVotes,
		VoidedBallots:       m.VoidedBallots,
		ParticipationPct:    m.ParticipationPct,
		AbstentionPct:       m.AbstentionPct,
		Lines:               lines,
		SupersedesID:        m.SupersedesID,
		Invalidated:         m.Invalidated,
		InvalidatedByCaseID: m.InvalidatedByCaseID,
		InvalidatedAt:       invalidatedAt,
	}, nil
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
	return "tally_outbox"
}

var _ ports.LedgerSource = (*Repository)(nil)
var _ ports.ResultRepository = (*Repository)(nil)
var _ ports.CaseGuard = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
