// Package tallybridge applies closed adjudication outcomes to the electoral
// ledger and the tally. It consumes judgment.closed events exactly once and
// translates each outcome into slate disqualification, ballot voidance and
// partial-result invalidation. Final results are never touched here.
package tallybridge
