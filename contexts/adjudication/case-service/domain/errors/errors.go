package errors

import "errors"

var (
	ErrInvalidCaseInput     = errors.New("case input is invalid")
	ErrCaseNotFound         = errors.New("case not found")
	ErrProtocolTaken        = errors.New("protocol number already assigned")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrCaseTerminal         = errors.New("case is in a terminal status")
	ErrReasonRequired       = errors.New("a justification is required")
	ErrDefenseWindowClosed  = errors.New("defense window has not opened")
	ErrAppealNotFound       = errors.New("appeal not found")
	ErrAppealAlreadyJudged  = errors.New("appeal already judged")
	ErrDocumentStoreFailure = errors.New("evidence document could not be stored")
)
