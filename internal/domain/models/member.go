// internal/domain/models/member.go
package models

import "time"

// Marking kinds. A marking records that a member attended a specific
// meeting, either in person or through an approved proxy.
const (
	MarkingPresent = "present"
	MarkingProxy   = "proxy"
)

// Marking ties a member to one meeting. A member holds at most one
// marking per session id.
type Marking struct {
	SessionID string `bson:"session_id" json:"session_id"`
	Kind      string `bson:"kind" json:"kind"` // present | proxy
}

// Member represents a registered member tracked for attendance.
//
// The document id is the stable username (the local part of the member's
// email handle). Members are created at signup and never deleted.
//
// Absences is stored redundantly for display. Every mutation path that
// changes markings recomputes it from the markings set, except the raw
// admin override, which writes it directly.
type Member struct {
	Username     string    `bson:"_id" json:"username"`
	Name         string    `bson:"name,omitempty" json:"name,omitempty"`
	PasswordHash []byte    `bson:"password_hash,omitempty" json:"-"`
	Markings     []Marking `bson:"markings" json:"markings"`
	Absences     int       `bson:"absences" json:"absences"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// MarkingFor returns the member's marking for the given session id, if any.
func (m *Member) MarkingFor(sessionID string) (Marking, bool) {
	for _, mk := range m.Markings {
		if mk.SessionID == sessionID {
			return mk, true
		}
	}
	return Marking{}, false
}
