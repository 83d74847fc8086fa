package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pleito/contexts/adjudication/judgment-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/judgment-service/domain/errors"
	"pleito/contexts/adjudication/judgment-service/ports"
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

// CreateSession relies on the partial unique index
// uq_judgment_sessions_case_open ON (case_id) WHERE status = 'in_progress';
// a losing concurrent insert surfaces SQLSTATE 23505.
func (r *Repository) CreateSession(ctx context.Context, judgment entities.Judgment) error {
	row := sessionModelFromEntity(judgment)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrSessionAlreadyOpen
		}
		return r.logError("judgment_repo_create_session_failed", err,
			"judgment_id", row.ID,
			"case_id", row.CaseID,
		)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, judgmentID string) (entities.Judgment, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(judgmentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Judgment{}, domainerrors.ErrSessionNotFound
		}
		return entities.Judgment{}, r.logError("judgment_repo_get_session_failed", err,
			"judgment_id", strings.TrimSpace(judgmentID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetSessionByCase(ctx context.Context, caseID string) (entities.Judgment, bool, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Order("opened_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Judgment{}, false, nil
		}
		return entities.Judgment{}, false, r.logError("judgment_repo_get_by_case_failed", err,
			"case_id", strings.TrimSpace(caseID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertVote(ctx context.Context, vote entities.CommitteeVote) error {
	row := voteModelFromEntity(vote)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "judgment_id"}, {Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "justification", "tie_breaker", "cast_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("judgment_repo_upsert_vote_failed", err,
			"judgment_id", row.JudgmentID,
			"member_id", row.MemberID,
		)
	}
	return nil
}

func (r *Repository) ListVotes(ctx context.Context, judgmentID string) ([]entities.CommitteeVote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("judgment_id = ?", strings.TrimSpace(judgmentID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judgment_repo_list_votes_failed", err,
			"judgment_id", strings.TrimSpace(judgmentID),
		)
	}
	items := make([]entities.CommitteeVote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// CloseJudgment writes the session closure, the case transition with its
// history, and the judgment.closed envelope in one transaction. The status
// guard on the session update makes concurrent closers lose with
// ErrSessionClosed instead of double-applying the case effects.
func (r *Repository) CloseJudgment(
	ctx context.Context,
	judgment entities.Judgment,
	closure ports.CaseClosure,
	envelope events.Envelope,
) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("judgment_repo_close_marshal_failed", err, "judgment_id", judgment.JudgmentID)
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&sessionModel{}).
			Where("id = ?", judgment.JudgmentID).
			Where("status = ?", string(entities.SessionOpen)).
			Updates(map[string]any{
				"status":        string(entities.SessionClosed),
				"closed_at":     utcPtr(judgment.ClosedAt),
				"outcome":       string(judgment.Outcome),
				"decision_type": string(judgment.DecisionType),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrSessionClosed
		}

		caseUpdate := tx.Table("adjudication_cases").
			Where("id = ?", closure.CaseID).
			Updates(map[string]any{
				"status":          "awaiting_appeal",
				"outcome":         closure.Outcome,
				"judgment_id":     closure.JudgmentID,
				"appeal_deadline": closure.AppealDeadline.UTC(),
				"updated_at":      closure.ClosedAt.UTC(),
			})
		if caseUpdate.Error != nil {
			return caseUpdate.Error
		}
		for _, entry := range closure.History {
			record := historyModel{
				ID:             entry.HistoryID,
				CaseID:         entry.CaseID,
				PreviousStatus: entry.PreviousStatus,
				NewStatus:      entry.NewStatus,
				Actor:          entry.Actor,
				Reason:         entry.Reason,
				OccurredAt:     entry.OccurredAt.UTC(),
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		outbox := outboxModel{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).Create(&outbox).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrSessionClosed) {
			return err
		}
		return r.logError("judgment_repo_close_failed", err,
			"judgment_id", judgment.JudgmentID,
			"case_id", closure.CaseID,
		)
	}
	return nil
}

func (r *Repository) GetCaseDocket(ctx context.Context, caseID string) (ports.CaseDocket, error) {
	var row docketProjection
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(caseID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CaseDocket{}, domainerrors.ErrSessionNotFound
		}
		return ports.CaseDocket{}, r.logError("judgment_repo_get_docket_failed", err,
			"case_id", strings.TrimSpace(caseID),
		)
	}
	return ports.CaseDocket{
		CaseID:      row.ID,
		ElectionID:  row.ElectionID,
		SubjectType: row.SubjectType,
		SubjectID:   row.SubjectID,
		Status:      row.Status,
	}, nil
}

func (r *Repository) GetCommitteeMember(ctx context.Context, committeeID string, memberID string) (entities.CommitteeMember, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("committee_id = ?", strings.TrimSpace(committeeID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CommitteeMember{}, domainerrors.ErrMemberNotOnCommittee
		}
		return entities.CommitteeMember{}, r.logError("judgment_repo_get_member_failed", err,
			"committee_id", strings.TrimSpace(committeeID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return entities.CommitteeMember{
		MemberID:    row.MemberID,
		CommitteeID: row.CommitteeID,
		Active:      row.Active,
		Presiding:   row.Presiding,
	}, nil
}

// HasActiveCredential checks the member's professional registration
// standing against the council registry projection.
func (r *Repository) HasActiveCredential(ctx context.Context, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&credentialModel{}).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Where("active = ?", true).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("judgment_repo_credential_check_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return count > 0, nil
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
		return nil, r.logError("judgment_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("judgment_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSessionNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "adjudication/judgment-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("judgment repository operation failed", fields...)
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

type sessionModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	CaseID       string     `gorm:"column:case_id"`
	ElectionID   string     `gorm:"column:election_id"`
	CommitteeID  string     `gorm:"column:committee_id"`
	Status       string     `gorm:"column:status"`
	OpenedBy     string     `gorm:"column:opened_by"`
	OpenedAt     time.Time  `gorm:"column:opened_at"`
	ClosedAt     *time.Time `gorm:"column:closed_at"`
	Outcome      string     `gorm:"column:outcome"`
	DecisionType string     `gorm:"column:decision_type"`
}

func (sessionModel) TableName() string {
	return "judgment_sessions"
}

func sessionModelFromEntity(judgment entities.Judgment) sessionModel {
	return sessionModel{
		ID:           strings.TrimSpace(judgment.JudgmentID),
		CaseID:       strings.TrimSpace(judgment.CaseID),
		ElectionID:   strings.TrimSpace(judgment.ElectionID),
		CommitteeID:  strings.TrimSpace(judgment.CommitteeID),
		Status:       string(judgment.Status),
		OpenedBy:     judgment.OpenedBy,
		OpenedAt:     judgment.OpenedAt.UTC(),
		ClosedAt:     utcPtr(judgment.ClosedAt),
		Outcome:      string(judgment.Outcome),
		DecisionType: string(judgment.DecisionType),
	}
}

func (m sessionModel) toEntity() entities.Judgment {
	return entities.Judgment{
		JudgmentID:   m.ID,
		CaseID:       m.CaseID,
		ElectionID:   m.ElectionID,
		CommitteeID:  m.CommitteeID,
		Status:       entities.SessionStatus(m.Status),
		OpenedBy:     m.OpenedBy,
		OpenedAt:     m.OpenedAt.UTC(),
		ClosedAt:     utcPtr(m.ClosedAt),
		Outcome:      entities.VoteValue(m.Outcome),
		DecisionType: entities.DecisionType(m.DecisionType),
	}
}

type voteModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	JudgmentID    string    `gorm:"column:judgment_id"`
	MemberID      string    `gorm:"column:member_id"`
	Value         string    `gorm:"column:value"`
	Justification string    `gorm:"column:justification"`
	TieBreaker    bool      `gorm:"column:tie_breaker"`
	CastAt        time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "committee_votes"
}

func voteModelFromEntity(vote entities.CommitteeVote) voteModel {
	return voteModel{
		ID:            strings.TrimSpace(vote.VoteID),
		JudgmentID:    strings.TrimSpace(vote.JudgmentID),
		MemberID:      strings.TrimSpace(vote.MemberID),
		Value:         string(vote.Value),
		Justification: vote.Justification,
		TieBreaker:    vote.TieBreaker,
		CastAt:        vote.CastAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.CommitteeVote {
	return entities.CommitteeVote{
		VoteID:        m.ID,
		JudgmentID:    m.JudgmentID,
		MemberID:      m.MemberID,
		Value:         entities.VoteValue(m.Value),
		Justification: m.Justification,
		TieBreaker:    m.TieBreaker,
		CastAt:        m.CastAt.UTC(),
	}
}

type memberModel struct {
	MemberID    string `gorm:"column:member_id;primaryKey"`
	CommitteeID string `gorm:"column:committee_id;primaryKey"`
	Active      bool   `gorm:"column:active"`
	Presiding   bool   `gorm:"column:presiding"`
}

func (memberModel) TableName() string {
	return "committee_members"
}

type credentialModel struct {
	MemberID string `gorm:"column:member_id;primaryKey"`
	Active   bool   `gorm:"column:active"`
}

func (credentialModel) TableName() string {
	return "member_credentials"
}

type docketProjection struct {
	ID          string `gorm:"column:id;primaryKey"`
	ElectionID  string `gorm:"column:election_id"`
	SubjectType string `gorm:"column:subject_type"`
	SubjectID   string `gorm:"column:subject_id"`
	Status      string `gorm:"column:status"`
}

func (docketProjection) TableName() string {
	return "adjudication_cases"
}

type historyModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	CaseID         string    `gorm:"column:case_id"`
	PreviousStatus string    `gorm:"column:previous_status"`
	NewStatus      string    `gorm:"column:new_status"`
	Actor          string    `gorm:"column:actor"`
	Reason         string    `gorm:"column:reason"`
	OccurredAt     time.Time `gorm:"column:occurred_at"`
}

func (historyModel) TableName() string {
	return "case_history"
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
	return "judgment_outbox"
}

func utcPtr(at *time.Time) *time.Time {
	if at == nil {
		return nil
	}
	utc := at.UTC()
	return &utc
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.JudgmentRepository = (*Repository)(nil)
var _ ports.CaseReader = (*Repository)(nil)
var _ ports.MemberDirectory = (*Repository)(nil)
var _ ports.CredentialClient = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
