package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pleito/contexts/adjudication/case-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/case-service/domain/errors"
	"pleito/contexts/adjudication/case-service/ports"
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

func (r *Repository) CreateCase(ctx context.Context, c entities.Case, opening entities.HistoryRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := caseModelFromEntity(c)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		record := historyModelFromEntity(opening)
		return tx.Create(&record).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrProtocolTaken
		}
		return r.logError("case_repo_create_failed", err, "case_id", c.CaseID)
	}
	return nil
}

func (r *Repository) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	var row caseModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(caseID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Case{}, domainerrors.ErrCaseNotFound
		}
		return entities.Case{}, r.logError("case_repo_get_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	return row.toEntity(), nil
}

func (r *Repository) GetCaseByProtocol(ctx context.Context, protocol string) (entities.Case, error) {
	var row caseModel
	err := r.db.WithContext(ctx).
		Where("protocol = ?", strings.TrimSpace(protocol)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Case{}, domainerrors.ErrCaseNotFound
		}
		return entities.Case{}, r.logError("case_repo_get_by_protocol_failed", err,
			"protocol", strings.TrimSpace(protocol),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCasesByElection(ctx context.Context, electionID string) ([]entities.Case, error) {
	var rows []caseModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_by_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Case, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListOverdueCandidates(ctx context.Context, now time.Time) ([]entities.Case, error) {
	var rows []caseModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.StatusUnderAnalysis)).
		Where("overdue = ?", false).
		Where("admissibility_deadline IS NOT NULL").
		Where("admissibility_deadline < ?", now.UTC()).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_overdue_failed", err)
	}
	items := make([]entities.Case, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateCase(ctx context.Context, c entities.Case, history []entities.HistoryRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := caseModelFromEntity(c)
		result := tx.Model(&caseModel{}).Where("id = ?", row.ID).Updates(row.updateColumns())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrCaseNotFound
		}
		for _, record := range history {
			model := historyModelFromEntity(record)
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrCaseNotFound) {
			return err
		}
		return r.logError("case_repo_update_failed", err, "case_id", c.CaseID)
	}
	return nil
}

func (r *Repository) ListHistory(ctx context.Context, caseID string) ([]entities.HistoryRecord, error) {
	var rows []historyModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_history_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	items := make([]entities.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendEvidence(ctx context.Context, evidence entities.Evidence) error {
	row := evidenceModel{
		ID:          evidence.EvidenceID,
		CaseID:      evidence.CaseID,
		SubmittedBy: evidence.SubmittedBy,
		DocumentURL: evidence.DocumentURL,
		Note:        evidence.Note,
		SubmittedAt: evidence.SubmittedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("case_repo_append_evidence_failed", err, "case_id", evidence.CaseID)
	}
	return nil
}

func (r *Repository) ListEvidence(ctx context.Context, caseID string) ([]entities.Evidence, error) {
	var rows []evidenceModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Order("submitted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_evidence_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	items := make([]entities.Evidence, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Evidence{
			EvidenceID:  row.ID,
			CaseID:      row.CaseID,
			SubmittedBy: row.SubmittedBy,
			DocumentURL: row.DocumentURL,
			Note:        row.Note,
			SubmittedAt: row.SubmittedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) AppendDefense(ctx context.Context, defense entities.Defense) error {
	row := defenseModel{
		ID:           defense.DefenseID,
		CaseID:       defense.CaseID,
		RespondentID: defense.RespondentID,
		Content:      defense.Content,
		DocumentURL:  defense.DocumentURL,
		SubmittedAt:  defense.SubmittedAt.UTC(),
		Timely:       defense.Timely,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("case_repo_append_defense_failed", err, "case_id", defense.CaseID)
	}
	return nil
}

func (r *Repository) ListDefenses(ctx context.Context, caseID string) ([]entities.Defense, error) {
	var rows []defenseModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Order("submitted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_defenses_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	items := make([]entities.Defense, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Defense{
			DefenseID:    row.ID,
			CaseID:       row.CaseID,
			RespondentID: row.RespondentID,
			Content:      row.Content,
			DocumentURL:  row.DocumentURL,
			SubmittedAt:  row.SubmittedAt.UTC(),
			Timely:       row.Timely,
		})
	}
	return items, nil
}

func (r *Repository) AppendAppeal(ctx context.Context, appeal entities.Appeal) error {
	row := appealModel{
		ID:          appeal.AppealID,
		CaseID:      appeal.CaseID,
		AppellantID: appeal.AppellantID,
		Grounds:     appeal.Grounds,
		FiledAt:     appeal.FiledAt.UTC(),
		Timely:      appeal.Timely,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("case_repo_append_appeal_failed", err, "case_id", appeal.CaseID)
	}
	return nil
}

func (r *Repository) GetAppeal(ctx context.Context, appealID string) (entities.Appeal, error) {
	var row appealModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(appealID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Appeal{}, domainerrors.ErrAppealNotFound
		}
		return entities.Appeal{}, r.logError("case_repo_get_appeal_failed", err,
			"appeal_id", strings.TrimSpace(appealID),
		)
	}
	return entities.Appeal{
		AppealID:    row.ID,
		CaseID:      row.CaseID,
		AppellantID: row.AppellantID,
		Grounds:     row.Grounds,
		FiledAt:     row.FiledAt.UTC(),
		Timely:      row.Timely,
	}, nil
}

func (r *Repository) ListAppeals(ctx context.Context, caseID string) ([]entities.Appeal, error) {
	var rows []appealModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", strings.TrimSpace(caseID)).
		Order("filed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_appeals_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	items := make([]entities.Appeal, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Appeal{
			AppealID:    row.ID,
			CaseID:      row.CaseID,
			AppellantID: row.AppellantID,
			Grounds:     row.Grounds,
			FiledAt:     row.FiledAt.UTC(),
			Timely:      row.Timely,
		})
	}
	return items, nil
}

func (r *Repository) AppendCounterArgument(ctx context.Context, counter entities.CounterArgument) error {
	row := counterModel{
		ID:       counter.CounterID,
		AppealID: counter.AppealID,
		AuthorID: counter.AuthorID,
		Content:  counter.Content,
		FiledAt:  counter.FiledAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("case_repo_append_counter_failed", err, "appeal_id", counter.AppealID)
	}
	return nil
}

func (r *Repository) ListCounterArguments(ctx context.Context, appealID string) ([]entities.CounterArgument, error) {
	var rows []counterModel
	if err := r.db.WithContext(ctx).
		Where("appeal_id = ?", strings.TrimSpace(appealID)).
		Order("filed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_counters_failed", err, "appeal_id", strings.TrimSpace(appealID))
	}
	items := make([]entities.CounterArgument, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.CounterArgument{
			CounterID: row.ID,
			AppealID:  row.AppealID,
			AuthorID:  row.AuthorID,
			Content:   row.Content,
			FiledAt:   row.FiledAt.UTC(),
		})
	}
	return items, nil
}

// NextProtocolNumber increments the yearly counter under a row lock so
// concurrent filings never share a protocol.
func (r *Repository) NextProtocolNumber(ctx context.Context, year int) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sequenceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("year = ?", year).
			First(&row).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = sequenceModel{Year: year, LastValue: 1}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			next = 1
			return nil
		}
		if err != nil {
			return err
		}
		row.LastValue++
		if err := tx.Model(&sequenceModel{}).
			Where("year = ?", year).
			Update("last_value", row.LastValue).Error; err != nil {
			return err
		}
		next = row.LastValue
		return nil
	})
	if err != nil {
		return 0, r.logError("case_repo_next_protocol_failed", err, "year", year)
	}
	return next, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("case_repo_append_outbox_marshal_failed", err, "event_id", envelope.EventID)
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
		return r.logError("case_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
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
		return nil, r.logError("case_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("case_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCaseNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "adjudication/case-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("case repository operation failed", fields...)
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

type caseModel struct {
	ID                    string     `gorm:"column:id;primaryKey"`
	Protocol              string     `gorm:"column:protocol"`
	ElectionID            string     `gorm:"column:election_id"`
	Type                  string     `gorm:"column:case_type"`
	SubjectType           string     `gorm:"column:subject_type"`
	SubjectID             string     `gorm:"column:subject_id"`
	ComplainantID         string     `gorm:"column:complainant_id"`
	Anonymous             bool       `gorm:"column:anonymous"`
	Summary               string     `gorm:"column:summary"`
	Status                string     `gorm:"column:status"`
	Overdue               bool       `gorm:"column:overdue"`
	AnalystID             string     `gorm:"column:analyst_id"`
	AdmissibilityDeadline *time.Time `gorm:"column:admissibility_deadline"`
	DefenseDeadline       *time.Time `gorm:"column:defense_deadline"`
	AppealDeadline        *time.Time `gorm:"column:appeal_deadline"`
	JudgmentID            string     `gorm:"column:judgment_id"`
	Outcome               string     `gorm:"column:outcome"`
	AppealOutcome         string     `gorm:"column:appeal_outcome"`
	ReopenCount           int        `gorm:"column:reopen_count"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
}

func (caseModel) TableName() string {
	return "adjudication_cases"
}

func (m caseModel) updateColumns() map[string]any {
	return map[string]any{
		"status":                 m.Status,
		"overdue":                m.Overdue,
		"analyst_id":             m.AnalystID,
		"admissibility_deadline": m.AdmissibilityDeadline,
		"defense_deadline":       m.DefenseDeadline,
		"appeal_deadline":        m.AppealDeadline,
		"judgment_id":            m.JudgmentID,
		"outcome":                m.Outcome,
		"appeal_outcome":         m.AppealOutcome,
		"reopen_count":           m.ReopenCount,
		"updated_at":             m.UpdatedAt,
	}
}

func caseModelFromEntity(c entities.Case) caseModel {
	row := caseModel{
		ID:            strings.TrimSpace(c.CaseID),
		Protocol:      strings.TrimSpace(c.Protocol),
		ElectionID:    strings.TrimSpace(c.ElectionID),
		Type:          string(c.Type),
		SubjectType:   string(c.SubjectType),
		SubjectID:     strings.TrimSpace(c.SubjectID),
		ComplainantID: strings.TrimSpace(c.ComplainantID),
		Anonymous:     c.Anonymous,
		Summary:       c.Summary,
		Status:        string(c.Status),
		Overdue:       c.Overdue,
		AnalystID:     strings.TrimSpace(c.AnalystID),
		JudgmentID:    strings.TrimSpace(c.JudgmentID),
		Outcome:       string(c.Outcome),
		AppealOutcome: string(c.AppealOutcome),
		ReopenCount:   c.ReopenCount,
		CreatedAt:     c.CreatedAt.UTC(),
		UpdatedAt:     c.UpdatedAt.UTC(),
	}
	row.AdmissibilityDeadline = utcPtr(c.AdmissibilityDeadline)
	row.DefenseDeadline = utcPtr(c.DefenseDeadline)
	row.AppealDeadline = utcPtr(c.AppealDeadline)
	return row
}

func (m caseModel) toEntity() entities.Case {
	return entities.Case{
		CaseID:                m.ID,
		Protocol:              m.Protocol,
		ElectionID:            m.ElectionID,
		Type:                  entities.CaseType(m.Type),
		SubjectType:           entities.SubjectType(m.SubjectType),
		SubjectID:             m.SubjectID,
		ComplainantID:         m.ComplainantID,
		Anonymous:             m.Anonymous,
		Summary:               m.Summary,
		Status:                entities.CaseStatus(m.Status),
		Overdue:               m.Overdue,
		AnalystID:             m.AnalystID,
		AdmissibilityDeadline: utcPtr(m.AdmissibilityDeadline),
		DefenseDeadline:       utcPtr(m.DefenseDeadline),
		AppealDeadline:        utcPtr(m.AppealDeadline),
		JudgmentID:            m.JudgmentID,
		Outcome:               entities.CaseOutcome(m.Outcome),
		AppealOutcome:         entities.CaseOutcome(m.AppealOutcome),
		ReopenCount:           m.ReopenCount,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	at := t.UTC()
	return &at
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

func historyModelFromEntity(record entities.HistoryRecord) historyModel {
	return historyModel{
		ID:             record.HistoryID,
		CaseID:         record.CaseID,
		PreviousStatus: string(record.PreviousStatus),
		NewStatus:      string(record.NewStatus),
		Actor:          record.Actor,
		Reason:         record.Reason,
		OccurredAt:     record.OccurredAt.UTC(),
	}
}

func (m historyModel) toEntity() entities.HistoryRecord {
	return entities.HistoryRecord{
		HistoryID:      m.ID,
		CaseID:         m.CaseID,
		PreviousStatus: entities.CaseStatus(m.PreviousStatus),
		NewStatus:      entities.CaseStatus(m.NewStatus),
		Actor:          m.Actor,
		Reason:         m.Reason,
		OccurredAt:     m.OccurredAt.UTC(),
	}
}

type evidenceModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	CaseID      string    `gorm:"column:case_id"`
	SubmittedBy string    `gorm:"column:submitted_by"`
	DocumentURL string    `gorm:"column:document_url"`
	Note        string    `gorm:"column:note"`
	SubmittedAt time.Time `gorm:"column:submitted_at"`
}

func (evidenceModel) TableName() string {
	return "case_evidence"
}

type defenseModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	CaseID       string    `gorm:"column:case_id"`
	RespondentID string    `gorm:"column:respondent_id"`
	Content      string    `gorm:"column:content"`
	DocumentURL  string    `gorm:"column:document_url"`
	SubmittedAt  time.Time `gorm:"column:submitted_at"`
	Timely       bool      `gorm:"column:timely"`
}

func (defenseModel) TableName() string {
	return "case_defenses"
}

type appealModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	CaseID      string    `gorm:"column:case_id"`
	AppellantID string    `gorm:"column:appellant_id"`
	Grounds     string    `gorm:"column:grounds"`
	FiledAt     time.Time `gorm:"column:filed_at"`
	Timely      bool      `gorm:"column:timely"`
}

func (appealModel) TableName() string {
	return "case_appeals"
}

type counterModel struct {
	ID       string    `gorm:"column:id;primaryKey"`
	AppealID string    `gorm:"column:appeal_id"`
	AuthorID string    `gorm:"column:author_id"`
	Content  string    `gorm:"column:content"`
	FiledAt  time.Time `gorm:"column:filed_at"`
}

func (counterModel) TableName() string {
	return "case_counter_arguments"
}

type sequenceModel struct {
	Year      int `gorm:"column:year;primaryKey"`
	LastValue int `gorm:"column:last_value"`
}

func (sequenceModel) TableName() string {
	return "case_protocol_sequences"
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
	return "case_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.CaseRepository = (*Repository)(nil)
var _ ports.ProtocolSequencer = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
