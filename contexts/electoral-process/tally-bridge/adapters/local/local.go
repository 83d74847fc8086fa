// Package local adapts the ballot-ledger and tally-engine use cases to the
// bridge ports for in-process wiring.
package local

import (
	"context"
	"time"

	ledgercommands "pleito/contexts/electoral-process/ballot-ledger/application/commands"
	"pleito/contexts/electoral-process/tally-bridge/ports"
	tallycommands "pleito/contexts/electoral-process/tally-engine/application/commands"
)

type LedgerBridge struct {
	Ledger ledgercommands.LedgerUseCase
}

func (b LedgerBridge) DisqualifySlate(ctx context.Context, slateID string, reasonCaseID string) error {
	_, err := b.Ledger.DisqualifySlate(ctx, slateID, reasonCaseID)
	return err
}

func (b LedgerBridge) VoidSlateBallots(
	ctx context.Context,
	slateID string,
	castAfter *time.Time,
	reasonCaseID string,
) (int, error) {
	voided, err := b.Ledger.VoidSlateBallots(ctx, slateID, castAfter, reasonCaseID)
	if err != nil {
		return 0, err
	}
	return len(voided), nil
}

type TallyBridge struct {
	Tally tallycommands.TallyUseCase
}

func (b TallyBridge) InvalidatePartialResults(ctx context.Context, electionID string, reasonCaseID string) (int, error) {
	return b.Tally.InvalidatePartialResults(ctx, tallycommands.InvalidateResultsCommand{
		ElectionID:   electionID,
		ReasonCaseID: reasonCaseID,
	})
}

var _ ports.LedgerCommands = LedgerBridge{}
var _ ports.TallyCommands = TallyBridge{}
