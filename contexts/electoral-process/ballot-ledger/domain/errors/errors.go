package errors

import "errors"

var (
	ErrInvalidBallotInput       = errors.New("invalid ballot input")
	ErrElectionNotFound         = errors.New("election not found")
	ErrElectionNotInVotingPhase = errors.New("election is not in the voting phase")
	ErrVotingWindowClosed       = errors.New("voting window is closed")
	ErrElectorNotEligible       = errors.New("elector is not eligible for this election")
	ErrEligibilityUnavailable   = errors.New("eligibility provider is unavailable")
	ErrDuplicateVote            = errors.New("elector already has a ballot for this election")
	ErrSlateNotFound            = errors.New("slate not found")
	ErrSlateNotEligible         = errors.New("slate is not eligible to receive votes")
	ErrBallotNotFound           = errors.New("ballot not found")
	ErrBallotAlreadyVoided      = errors.New("ballot is already voided")
)
