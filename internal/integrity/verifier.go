package integrity

import "coinsync/internal/domain"

// NoStoredHash is reported as StoredHash for records that were never stamped.
const NoStoredHash = "none"

// Verification is the outcome of checking one record.
type Verification struct {
	IsValid     bool   `json:"is_valid"`
	CurrentHash string `json:"current_hash"`
	StoredHash  string `json:"stored_hash"`
}

// Verify recomputes r's hash with the stored hash stripped and compares.
// An unstamped record is never valid.
func Verify(r domain.Record) (Verification, error) {
	current, err := HashRecord(r)
	if err != nil {
		return Verification{}, err
	}

	stored := r.ContentHash
	if stored == "" {
		stored = NoStoredHash
	}

	return Verification{
		IsValid:     r.IsStamped() && current == r.ContentHash,
		CurrentHash: current,
		StoredHash:  stored,
	}, nil
}

// VerifyAll checks records in order and stops at the first mismatch, which
// is returned as *domain.IntegrityError. A serialization failure is returned
// as-is.
func VerifyAll(records []domain.Record) error {
	for _, r := range records {
		v, err := Verify(r)
		if err != nil {
			return err
		}
		if !v.IsValid {
			return &domain.IntegrityError{
				RecordID:    r.ID,
				RecordName:  r.Name,
				StoredHash:  v.StoredHash,
				CurrentHash: v.CurrentHash,
			}
		}
	}
	return nil
}
