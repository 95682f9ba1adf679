// Package domain holds the typed identifiers shared across the identity core.
// Typed IDs prevent cross-type assignment at compile time; parsing enforces
// format invariants at trust boundaries.
package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "selfid/pkg/domain-errors"
)

// Address references an identity (the facade's own address, a claim issuer,
// or an execution target). Hex-encoded, 0x-prefixed.
type Address string

// KeyID identifies an authorization key: the hex SHA3-256 digest of the
// public credential it was derived from. Key material itself never enters
// the registry.
type KeyID string

// ClaimID addresses a claim: the hex SHA3-256 digest of (issuer, topic).
// Computed only by the claims package so the derivation stays in one place.
type ClaimID string

// Purpose is a capability tag on a key. Values above PurposeExtensionBase
// are identity-specific extension purposes and pass through opaquely.
type Purpose uint32

const (
	PurposeManagement  Purpose = 1
	PurposeAction      Purpose = 2
	PurposeClaimSigner Purpose = 3
	PurposeEncryption  Purpose = 4

	// PurposeExtensionBase marks the start of the domain-specific range
	// (profile writers, partnership managers, and similar).
	PurposeExtensionBase Purpose = 100
)

func (p Purpose) String() string {
	switch p {
	case PurposeManagement:
		return "management"
	case PurposeAction:
		return "action"
	case PurposeClaimSigner:
		return "claim"
	case PurposeEncryption:
		return "encryption"
	default:
		return "extension"
	}
}

// KeyType tags the algorithm family of a key. Opaque to the core.
type KeyType uint32

const (
	KeyTypeECDSA KeyType = 1
	KeyTypeRSA   KeyType = 2
)

// Scheme tags the signature scheme of a claim. Opaque to the core.
type Scheme uint32

const (
	SchemeECDSA Scheme = 1
	SchemeRSA   Scheme = 2
)

// Topic is the numeric identifier of an attribute name. The label<->topic
// bijection lives in topic.go; the registries treat topics as opaque numbers.
type Topic uint64

// KeyIDFromPublicKey derives the registry identifier for a public credential.
func KeyIDFromPublicKey(publicKey []byte) KeyID {
	sum := sha3.Sum256(publicKey)
	return KeyID(hex.EncodeToString(sum[:]))
}

// KeyIDFromAddress derives the key slot an address authorizes as. Callers are
// identified by address; their key, if registered, lives under this ID.
func KeyIDFromAddress(addr Address) KeyID {
	sum := sha3.Sum256([]byte(addr))
	return KeyID(hex.EncodeToString(sum[:]))
}

// ParseAddress validates an address at a trust boundary: 0x-prefixed,
// non-empty, even-length hex.
func ParseAddress(s string) (Address, error) {
	if !strings.HasPrefix(s, "0x") || len(s) == 2 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed hex")
	}
	body := s[2:]
	if len(body)%2 != 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address hex must have even length")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is not valid hex")
	}
	return Address(strings.ToLower(s)), nil
}

// ParseClaimID validates a claim id: 64 lowercase hex characters.
func ParseClaimID(s string) (ClaimID, error) {
	if len(s) != 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "claim id must be 64 hex characters")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "claim id is not valid hex")
	}
	return ClaimID(strings.ToLower(s)), nil
}

// ParseKeyID validates a key id: 64 lowercase hex characters.
func ParseKeyID(s string) (KeyID, error) {
	if len(s) != 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "key id must be 64 hex characters")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "key id is not valid hex")
	}
	return KeyID(strings.ToLower(s)), nil
}
