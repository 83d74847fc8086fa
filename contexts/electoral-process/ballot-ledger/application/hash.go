package application

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ElectorKey derives the one-way elector identifier stored on ballots.
// The server secret keeps the mapping non-reversible for anyone without it.
func ElectorKey(electionID string, electorID string, secret string) string {
	return digest("elector", electionID, electorID, secret)
}

// ReceiptHash derives the receipt handed to the elector at cast time. It
// proves inclusion of a specific ballot without revealing the choice.
func ReceiptHash(electionID string, electorKey string, ballotID string, secret string) string {
	return digest("receipt", electionID, electorKey, ballotID, secret)
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
