// Package tallyengine computes election results from the ballot ledger:
// per-slate counts, percentages over the valid-vote base, deterministic
// ranking, and participation figures. Results are write-once snapshots; a
// recomputation supersedes the prior record instead of mutating it.
package tallyengine
