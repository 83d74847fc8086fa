package errors

import "errors"

var (
	ErrInvalidJudgmentInput = errors.New("judgment input is invalid")
	ErrSessionNotFound      = errors.New("judgment session not found")
	ErrSessionClosed        = errors.New("judgment session already closed")
	ErrSessionAlreadyOpen   = errors.New("case already has an open judgment session")
	ErrCaseNotReady         = errors.New("case is not awaiting judgment")
	ErrMemberNotOnCommittee = errors.New("member is not on the assigned committee")
	ErrMemberInactive       = errors.New("committee member is not active")
	ErrCredentialInactive   = errors.New("member credential is not active")
	ErrTieBreakNotAllowed   = errors.New("only the presiding member casts the tie-break vote")
	ErrQuorumNotReached     = errors.New("no decision reachable from the cast votes")
)
