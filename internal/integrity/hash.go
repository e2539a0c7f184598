// Package integrity computes content hashes for market records and verifies
// that a record still matches the hash it was stamped with.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"coinsync/internal/domain"
)

// recordDomain prefixes every record hash. The version suffix allows the
// canonical form to change without old and new hashes comparing equal.
const recordDomain = "coinsync/record/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeHash returns the hex SHA-256 digest of v's canonical serialization.
// It is a pure function of v's content: field or key insertion order does not
// affect the result. Non-serializable members yield *domain.SerializationError.
func ComputeHash(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ComputeHash: %w", err)
	}
	return hashWithDomain(recordDomain, canonical), nil
}

// HashRecord hashes r with its ContentHash field excluded.
func HashRecord(r domain.Record) (string, error) {
	return ComputeHash(r.WithoutHash())
}

// Stamp returns a copy of r carrying its content hash.
func Stamp(r domain.Record) (domain.Record, error) {
	hash, err := HashRecord(r)
	if err != nil {
		return r, err
	}
	r.ContentHash = hash
	return r, nil
}

// StampAll returns a new slice in which every record carries a content hash.
// Records that already have one keep it, so a later Verify checks the hash
// they arrived with.
func StampAll(records []domain.Record) ([]domain.Record, error) {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		if r.IsStamped() {
			out[i] = r
			continue
		}
		stamped, err := Stamp(r)
		if err != nil {
			return nil, fmt.Errorf("stamp %s: %w", r.ID, err)
		}
		out[i] = stamped
	}
	return out, nil
}
