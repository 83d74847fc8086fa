package queries

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	application "pleito/contexts/electoral-process/ballot-ledger/application"
	domainerrors "pleito/contexts/electoral-process/ballot-ledger/domain/errors"
	"pleito/contexts/electoral-process/ballot-ledger/ports"
)

// ReceiptUseCase answers inclusion checks: an elector presents the receipt
// issued at cast time and learns whether a matching ballot is on the
// ledger, without the response revealing the recorded choice.
type ReceiptUseCase struct {
	Ballots       ports.BallotRepository
	ReceiptSecret string
}

type ReceiptVerification struct {
	Included bool
	CastAt   time.Time
}

func (uc ReceiptUseCase) VerifyReceipt(
	ctx context.Context,
	electionID string,
	electorID string,
	receipt string,
) (ReceiptVerification, error) {
	electionID = strings.TrimSpace(electionID)
	electorID = strings.TrimSpace(electorID)
	receipt = strings.TrimSpace(receipt)
	if electionID == "" || electorID == "" || receipt == "" {
		return ReceiptVerification{}, domainerrors.ErrInvalidBallotInput
	}

	electorKey := application.ElectorKey(electionID, electorID, uc.ReceiptSecret)
	ballot, found, err := uc.Ballots.GetActiveBallotByElector(ctx, electionID, electorKey)
	if err != nil {
		return ReceiptVerification{}, err
	}
	if !found {
		return ReceiptVerification{}, nil
	}
	expected := application.ReceiptHash(electionID, electorKey, ballot.BallotID, uc.ReceiptSecret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(receipt)) != 1 {
		return ReceiptVerification{}, nil
	}
	return ReceiptVerification{Included: true, CastAt: ballot.CastAt}, nil
}
