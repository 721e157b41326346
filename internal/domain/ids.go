package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// UserID is the principal issued by the external identity service.
// It is opaque to this engine and never rewritten.
type UserID string

func (u UserID) String() string { return string(u) }

// Valid reports whether the id carries any non-blank content.
func (u UserID) Valid() bool { return strings.TrimSpace(string(u)) != "" }

// SortPair returns both ids in canonical order (lexicographically smaller first).
func SortPair(a, b UserID) (UserID, UserID) {
	if b < a {
		return b, a
	}
	return a, b
}

// MatchID is the deterministic id of the match between a and b.
// MatchID(a, b) == MatchID(b, a) for every pair.
func MatchID(a, b UserID) string { return pairID("match", a, b) }

// ChatID is the deterministic conversation id for the pair, handed to the
// messaging service when a match forms.
func ChatID(a, b UserID) string { return pairID("chat", a, b) }

func pairID(namespace string, a, b UserID) string {
	lo, hi := SortPair(a, b)
	// NUL separators keep ("ab","c") and ("a","bc") apart.
	sum := blake2b.Sum256([]byte(namespace + "\x00" + string(lo) + "\x00" + string(hi)))
	return hex.EncodeToString(sum[:16])
}
