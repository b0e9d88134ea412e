package models

type ConflictKind string

const (
	ConflictInstructor ConflictKind = "instructor"
	ConflictRoom       ConflictKind = "room"
)

// ConflictRecord names two scheduled instances whose time ranges overlap for
// the same instructor or room. Advisory only: it never blocks generation or
// booking.
type ConflictRecord struct {
	Kind        ConflictKind `json:"kind"`
	KeyID       string       `json:"key_id"`
	AInstanceID uint         `json:"a_instance_id"`
	BInstanceID uint         `json:"b_instance_id"`
}
