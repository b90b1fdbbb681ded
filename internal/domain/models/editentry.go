// internal/domain/models/editentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EditEntry is one append-only record in the manualEdits collection.
// Every manual attendance edit, proxy approval, and automatic absence
// increment at session close writes one (or, for bulk resets, a single
// summary entry). Entries are never updated or deleted.
type EditEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username      string             `bson:"username" json:"username"`
	AdminUsername string             `bson:"admin_username" json:"admin_username"`
	SessionID     string             `bson:"session_id,omitempty" json:"session_id,omitempty"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	Description   string             `bson:"description" json:"description"`
}
