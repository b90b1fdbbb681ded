// internal/domain/models/meeting.go
package models

import "time"

// Meeting is one real-world meeting instance. Its id is an opaque string
// (a UUID) that doubles as the QR payload members scan to check in.
//
// At most one meeting has Open == true at any time; the attendanceSessions
// collection carries a partial unique index on {open: true} to enforce it.
type Meeting struct {
	ID        string    `bson:"_id" json:"id"`
	Open      bool      `bson:"open" json:"open"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ClosedAt  time.Time `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
}
