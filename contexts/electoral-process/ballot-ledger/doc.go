// Package ballotledger implements the append-only ballot ledger inside the
// electoral-process context.
//
// The module owns vote casting (one non-voided ballot per elector per
// election, enforced transactionally), receipt issuance/verification, and
// the voidance operations the adjudication bridge applies when a judgment
// disqualifies a slate. Ballots are never deleted; voidance preserves the
// original vote kind for audit. Business rules live in application/domain
// layers, infrastructure stays behind ports and adapters.
package ballotledger
