package errors

import "errors"

var (
	ErrInvalidTallyInput   = errors.New("tally input is invalid")
	ErrElectionNotFound    = errors.New("election not found")
	ErrResultNotFound      = errors.New("result not found")
	ErrAdjudicationPending = errors.New("final result blocked by pending adjudication")
)
