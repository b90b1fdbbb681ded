// internal/domain/models/proxyrequest.go
package models

import "time"

// ProxyRequest is a member's request to have someone else attend a
// meeting on their behalf.
//
// Pending requests live in the proxyRequests collection. Approval moves
// the document to approvedRequests (stamping ApprovedAt) and writes a
// proxy marking onto the represented member. Rejection deletes the
// pending document outright.
type ProxyRequest struct {
	ID          string    `bson:"_id" json:"id"`
	SessionID   string    `bson:"session_id" json:"session_id"`
	ProxyName   string    `bson:"proxy_name" json:"proxy_name"`     // who will attend
	ProxyingFor string    `bson:"proxying_for" json:"proxying_for"` // member username being represented
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	ApprovedAt  time.Time `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
}
