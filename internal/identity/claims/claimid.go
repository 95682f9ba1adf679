// Package claims is the claim registry: attribute assertions about the
// identity, addressed by a deterministic digest of issuer and topic.
package claims

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	id "selfid/pkg/domain"
)

// ComputeClaimID derives the content address of a claim: the hex SHA3-256
// digest of the issuer address followed by the big-endian topic. Pure and
// deterministic; a second claim for the same (issuer, topic) pair lands on
// the same id and overwrites the first; that is how updates are expressed.
func ComputeClaimID(issuer id.Address, topic id.Topic) id.ClaimID {
	h := sha3.New256()
	h.Write([]byte(issuer))
	var t [8]byte
	binary.BigEndian.PutUint64(t[:], uint64(topic))
	h.Write(t[:])
	return id.ClaimID(hex.EncodeToString(h.Sum(nil)))
}
