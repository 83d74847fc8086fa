package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "pleito/contexts/adjudication/judgment-service/application"
	"pleito/contexts/adjudication/judgment-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/judgment-service/domain/errors"
	"pleito/contexts/adjudication/judgment-service/ports"
	"pleito/internal/shared/deadline"
	"pleito/internal/shared/events"
)

const (
	caseStatusAwaitingJudgment = "awaiting_judgment"
	caseStatusJudged           = "judged"
	caseStatusAwaitingAppeal   = "awaiting_appeal"
)

type OpenSessionCommand struct {
	CaseID      string
	CommitteeID string
	OpenedBy    string
}

type CastCommitteeVoteCommand struct {
	JudgmentID    string
	MemberID      string
	Value         entities.VoteValue
	Justification string
	TieBreaker    bool
}

type CloseJudgmentCommand struct {
	JudgmentID string
	Actor      string
	// FullVoidance orders every ballot of a disqualified slate voided,
	// not only those cast after the effective date.
	FullVoidance bool
	// EffectiveAt overrides the disqualification's legal effective date;
	// closure time when nil.
	EffectiveAt *time.Time
}

// JudgmentUseCase runs deliberation sessions.
type JudgmentUseCase struct {
	Sessions    ports.JudgmentRepository
	Cases       ports.CaseReader
	Members     ports.MemberDirectory
	Credentials ports.CredentialClient
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	AppealDays  int
	Calendar    deadline.Calendar
	Logger      *slog.Logger
}

// OpenSession admits a docketed case to deliberation. One open session per
// case.
func (uc JudgmentUseCase) OpenSession(ctx context.Context, cmd OpenSessionCommand) (entities.Judgment, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	committeeID := strings.TrimSpace(cmd.CommitteeID)
	openedBy := strings.TrimSpace(cmd.OpenedBy)
	if caseID == "" || committeeID == "" || openedBy == "" {
		return entities.Judgment{}, domainerrors.ErrInvalidJudgmentInput
	}

	docket, err := uc.Cases.GetCaseDocket(ctx, caseID)
	if err != nil {
		return entities.Judgment{}, err
	}
	if docket.Status != caseStatusAwaitingJudgment {
		return entities.Judgment{}, domainerrors.ErrCaseNotReady
	}
	if existing, found, err := uc.Sessions.GetSessionByCase(ctx, caseID); err != nil {
		return entities.Judgment{}, err
	} else if found && !existing.Closed() {
		return entities.Judgment{}, domainerrors.ErrSessionAlreadyOpen
	}

	judgmentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Judgment{}, err
	}
	judgment := entities.Judgment{
		JudgmentID:  judgmentID,
		CaseID:      caseID,
		ElectionID:  docket.ElectionID,
		CommitteeID: committeeID,
		Status:      entities.SessionOpen,
		OpenedBy:    openedBy,
		OpenedAt:    uc.now(),
	}
	if err := uc.Sessions.CreateSession(ctx, judgment); err != nil {
		return entities.Judgment{}, err
	}

	logger.Info("judgment session opened",
		"event", "judgment_session_opened",
		"module", "adjudication/judgment-service",
		"layer", "application",
		"judgment_id", judgmentID,
		"case_id", caseID,
		"committee_id", committeeID,
	)
	return judgment, nil
}

// CastCommitteeVote records or replaces the member's vote while the
// session is open. Only the presiding member may flag the tie-break vote.
func (uc JudgmentUseCase) CastCommitteeVote(ctx context.Context, cmd CastCommitteeVoteCommand) (entities.CommitteeVote, error) {
	logger := application.ResolveLogger(uc.Logger)
	judgmentID := strings.TrimSpace(cmd.JudgmentID)
	memberID := strings.TrimSpace(cmd.MemberID)
	if judgmentID == "" || memberID == "" {
		return entities.CommitteeVote{}, domainerrors.ErrInvalidJudgmentInput
	}
	switch cmd.Value {
	case entities.VoteUpheld, entities.VoteDismissed, entities.VotePartiallyUpheld,
		entities.VoteAbstain, entities.VoteImpeded:
	default:
		return entities.CommitteeVote{}, domainerrors.ErrInvalidJudgmentInput
	}

	session, err := uc.Sessions.GetSession(ctx, judgmentID)
	if err != nil {
		return entities.CommitteeVote{}, err
	}
	if session.Closed() {
		return entities.CommitteeVote{}, domainerrors.ErrSessionClosed
	}

	member, err := uc.Members.GetCommitteeMember(ctx, session.CommitteeID, memberID)
	if err != nil {
		return entities.CommitteeVote{}, err
	}
	if !member.Active {
		return entities.CommitteeVote{}, domainerrors.ErrMemberInactive
	}
	if uc.Credentials != nil {
		active, err := uc.Credentials.HasActiveCredential(ctx, memberID)
		if err != nil {
			return entities.CommitteeVote{}, err
		}
		if !active {
			return entities.CommitteeVote{}, domainerrors.ErrCredentialInactive
		}
	}
	if cmd.TieBreaker && !member.Presiding {
		return entities.CommitteeVote{}, domainerrors.ErrTieBreakNotAllowed
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.CommitteeVote{}, err
	}
	vote := entities.CommitteeVote{
		VoteID:        voteID,
		JudgmentID:    judgmentID,
		MemberID:      memberID,
		Value:         cmd.Value,
		Justification: strings.TrimSpace(cmd.Justification),
		TieBreaker:    cmd.TieBreaker,
		CastAt:        uc.now(),
	}
	if err := uc.Sessions.UpsertVote(ctx, vote); err != nil {
		return entities.CommitteeVote{}, err
	}

	logger.Info("committee vote recorded",
		"event", "judgment_vote_recorded",
		"module", "adjudication/judgment-service",
		"layer", "application",
		"judgment_id", judgmentID,
		"member_id", memberID,
		"tie_breaker", cmd.TieBreaker,
	)
	return vote, nil
}

// CloseJudgment tallies the votes and closes the session atomically with
// the case transition and the judgment.closed event. A session that cannot
// decide stays open with ErrQuorumNotReached. Concurrent closers are safe:
// the loser observes the already-closed session and returns it unchanged.
func (uc JudgmentUseCase) CloseJudgment(ctx context.Context, cmd CloseJudgmentCommand) (entities.Judgment, error) {
	logger := application.ResolveLogger(uc.Logger)
	judgmentID := strings.TrimSpace(cmd.JudgmentID)
	actor := strings.TrimSpace(cmd.Actor)
	if judgmentID == "" || actor == "" {
		return entities.Judgment{}, domainerrors.ErrInvalidJudgmentInput
	}

	session, err := uc.Sessions.GetSession(ctx, judgmentID)
	if err != nil {
		return entities.Judgment{}, err
	}
	if session.Closed() {
		return session, nil
	}

	votes, err := uc.Sessions.ListVotes(ctx, judgmentID)
	if err != nil {
		return entities.Judgment{}, err
	}
	decision, ok := entities.Decide(votes)
	if !ok {
		logger.Warn("judgment closure refused",
			"event", "judgment_quorum_not_reached",
			"module", "adjudication/judgment-service",
			"layer", "application",
			"judgment_id", judgmentID,
			"vote_count", len(votes),
		)
		return entities.Judgment{}, domainerrors.ErrQuorumNotReached
	}

	now := uc.now()
	appealDays := uc.AppealDays
	if appealDays <= 0 {
		appealDays = 3
	}
	appealDeadline := deadline.Compute(now, appealDays, uc.Calendar)

	closed := session
	closed.Status = entities.SessionClosed
	closed.ClosedAt = &now
	closed.Outcome = decision.Outcome
	closed.DecisionType = decision.DecisionType

	closure, err := uc.buildClosure(ctx, closed, actor, appealDeadline, now)
	if err != nil {
		return entities.Judgment{}, err
	}
	envelope, err := uc.buildEnvelope(ctx, closed, cmd, now)
	if err != nil {
		return entities.Judgment{}, err
	}

	if err := uc.Sessions.CloseJudgment(ctx, closed, closure, envelope); err != nil {
		if errors.Is(err, domainerrors.ErrSessionClosed) {
			return uc.Sessions.GetSession(ctx, judgmentID)
		}
		return entities.Judgment{}, err
	}

	logger.Info("judgment closed",
		"event", "judgment_closed",
		"module", "adjudication/judgment-service",
		"layer", "application",
		"judgment_id", judgmentID,
		"case_id", closed.CaseID,
		"outcome", string(closed.Outcome),
		"decision_type", string(closed.DecisionType),
	)
	return closed, nil
}

func (uc JudgmentUseCase) buildClosure(
	ctx context.Context,
	closed entities.Judgment,
	actor string,
	appealDeadline time.Time,
	now time.Time,
) (ports.CaseClosure, error) {
	judgedID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.CaseClosure{}, err
	}
	appealWindowID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.CaseClosure{}, err
	}
	return ports.CaseClosure{
		CaseID:         closed.CaseID,
		JudgmentID:     closed.JudgmentID,
		Outcome:        string(closed.Outcome),
		AppealDeadline: appealDeadline,
		ClosedAt:       now,
		History: []ports.CaseHistoryEntry{
			{
				HistoryID:      judgedID,
				CaseID:         closed.CaseID,
				PreviousStatus: caseStatusAwaitingJudgment,
				NewStatus:      caseStatusJudged,
				Actor:          actor,
				Reason:         "judgment closed: " + string(closed.Outcome),
				OccurredAt:     now,
			},
			{
				HistoryID:      appealWindowID,
				CaseID:         closed.CaseID,
				PreviousStatus: caseStatusJudged,
				NewStatus:      caseStatusAwaitingAppeal,
				Actor:          actor,
				Reason:         "appeal window opened",
				OccurredAt:     now,
			},
		},
	}, nil
}

func (uc JudgmentUseCase) buildEnvelope(
	ctx context.Context,
	closed entities.Judgment,
	cmd CloseJudgmentCommand,
	now time.Time,
) (events.Envelope, error) {
	docket, err := uc.Cases.GetCaseDocket(ctx, closed.CaseID)
	if err != nil {
		return events.Envelope{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return events.Envelope{}, err
	}
	effectiveAt := now
	if cmd.EffectiveAt != nil {
		effectiveAt = cmd.EffectiveAt.UTC()
	}
	payload, err := json.Marshal(map[string]any{
		"judgment_id":   closed.JudgmentID,
		"case_id":       closed.CaseID,
		"election_id":   closed.ElectionID,
		"subject_type":  docket.SubjectType,
		"subject_id":    docket.SubjectID,
		"outcome":       string(closed.Outcome),
		"decision_type": string(closed.DecisionType),
		"effective_at":  effectiveAt.Format(time.RFC3339Nano),
		"full_voidance": cmd.FullVoidance,
		"occurred_at":   now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:       eventID,
		EventType:     "judgment.closed",
		SourceService: "judgment-service",
		OccurredAt:    now.UTC(),
		EntityType:    "judgment",
		EntityID:      closed.JudgmentID,
		SchemaVersion: 1,
		PartitionKey:  closed.ElectionID,
		Data:          payload,
	}, nil
}

func (uc JudgmentUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
