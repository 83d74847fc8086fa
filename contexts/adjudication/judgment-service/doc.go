// Package judgmentservice runs committee deliberation sessions: opening a
// session for a case on the docket, collecting one vote per active member,
// and closing with a unanimous, majority, or tie-break decision. Closure is
// atomic with the case transition and the outbound judgment event.
package judgmentservice
