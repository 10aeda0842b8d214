package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	PromptHash   Hash
	ResponseHash Hash
	RuleSetHash  Hash
)

// Constructors
func NewPromptHash(data []byte) PromptHash     { return PromptHash(NewHash(data)) }
func NewResponseHash(data []byte) ResponseHash { return ResponseHash(NewHash(data)) }

// String conversions
func (h PromptHash) String() string   { return Hash(h).String() }
func (h ResponseHash) String() string { return Hash(h).String() }
func (h RuleSetHash) String() string  { return Hash(h).String() }

// ComputeRuleSetHash fingerprints an ordered rule sequence. Rule order is
// part of the identity, so the texts are not sorted before hashing.
func ComputeRuleSetHash(rules []string) RuleSetHash {
	var data strings.Builder
	for _, rule := range rules {
		data.WriteString(rule)
		data.WriteString("\n")
	}
	return RuleSetHash(NewHash([]byte(data.String())))
}
