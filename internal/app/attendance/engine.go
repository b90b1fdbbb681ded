// internal/app/attendance/engine.go

// Package attendance implements the reconciliation engine: the rules by
// which session lifecycle events, raw scans, proxy approvals, and manual
// admin edits combine into a consistent per-member attendance record and
// absence count, with an immutable audit trail of corrections.
package attendance

import (
	"context"
	"errors"
	"fmt"

	memberstore "github.com/dalemusser/rollcall/internal/app/store/members"
	meetingstore "github.com/dalemusser/rollcall/internal/app/store/meetings"
	proxystore "github.com/dalemusser/rollcall/internal/app/store/proxies"
	"github.com/dalemusser/rollcall/internal/app/system/auditlog"
	"github.com/dalemusser/rollcall/internal/app/system/caller"
	"github.com/dalemusser/rollcall/internal/app/system/htmlsanitize"
	"github.com/dalemusser/rollcall/internal/app/system/normalize"
	"github.com/dalemusser/rollcall/internal/app/system/txn"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Manual edit statuses. Absent is expressed by holding no marking for
// the session, so it has no marking kind.
const (
	StatusPresent = models.MarkingPresent
	StatusProxy   = models.MarkingProxy
	StatusAbsent  = "absent"
)

// Engine coordinates every mutation of attendance state. All writes go
// through txn.Run so multi-document changes commit atomically where the
// deployment supports transactions; where it does not, member-side
// writes are ordered before session-state writes so a partial failure
// leaves the operation retryable.
type Engine struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Audit    *auditlog.Logger
	Members  *memberstore.Store
	Meetings *meetingstore.Store
	Proxies  *proxystore.Store
}

// New creates an Engine over the given database.
func New(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Engine {
	return &Engine{
		DB:       db,
		Log:      logger,
		Audit:    audit,
		Members:  memberstore.New(db),
		Meetings: meetingstore.New(db),
		Proxies:  proxystore.New(db),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session lifecycle                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// StartSession opens a new attendance session. The partial unique index
// on {open: true} makes the no-open-session check and the insert one
// atomic precondition, so two admins racing cannot both succeed.
func (e *Engine) StartSession(ctx context.Context, c caller.Context) (models.Meeting, error) {
	if !c.IsAdmin {
		return models.Meeting{}, ErrUnauthorized
	}

	m, err := e.Meetings.Create(ctx)
	if err != nil {
		if errors.Is(err, meetingstore.ErrOpenSessionExists) {
			return models.Meeting{}, fmt.Errorf("%w: an attendance session is already open", ErrInvalidState)
		}
		return models.Meeting{}, err
	}

	e.Log.Info("attendance session started",
		zap.String("session_id", m.ID),
		zap.String("admin", c.Username))
	return m, nil
}

// CloseResult reports what a session close did.
type CloseResult struct {
	SessionID      string
	AbsencesAdded  int
	MembersSkipped int // members who already held a marking
}

// CloseSession ends an open session and reconciles absences: every
// member with no marking for the session gets absences incremented by
// one and an audit entry; marked members are untouched. The member
// increments, audit entries, and the session-state flip are issued as
// one batch.
func (e *Engine) CloseSession(ctx context.Context, c caller.Context, sessionID string) (CloseResult, error) {
	if !c.IsAdmin {
		return CloseResult{}, ErrUnauthorized
	}

	sess, err := e.Meetings.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return CloseResult{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		return CloseResult{}, err
	}
	if !sess.Open {
		return CloseResult{}, fmt.Errorf("%w: session %s is already closed", ErrInvalidState, sessionID)
	}

	all, err := e.Members.List(ctx)
	if err != nil {
		return CloseResult{}, err
	}

	var absent []string
	var entries []models.EditEntry
	skipped := 0
	for _, m := range all {
		if _, marked := m.MarkingFor(sessionID); marked {
			skipped++
			continue
		}
		absent = append(absent, m.Username)
		// No resulting count in the description: the increments are
		// applied inside the batch, and a concurrent override could make
		// a number read here mis-state the stored value.
		entries = append(entries, models.EditEntry{
			Username:      m.Username,
			AdminUsername: c.Username,
			SessionID:     sessionID,
			Description:   fmt.Sprintf("Session close: absence recorded for %s", m.Username),
		})
	}

	// Member updates and audit entries first, the session flip last, so
	// a failure on a non-transactional deployment leaves the session
	// open for retry.
	err = txn.Run(ctx, e.DB, e.Log, func(ctx context.Context) error {
		if err := e.Members.IncrementAbsences(ctx, absent); err != nil {
			return err
		}
		if err := e.Audit.AppendMany(ctx, entries); err != nil {
			return err
		}
		if err := e.Meetings.MarkClosed(ctx, sessionID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return fmt.Errorf("%w: session %s was closed concurrently", ErrInvalidState, sessionID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return CloseResult{}, e.writeFailure("close session", err)
	}

	e.Log.Info("attendance session closed",
		zap.String("session_id", sessionID),
		zap.String("admin", c.Username),
		zap.Int("absences_added", len(absent)),
		zap.Int("members_marked", skipped))
	return CloseResult{SessionID: sessionID, AbsencesAdded: len(absent), MembersSkipped: skipped}, nil
}

// AbortSession deletes an open session entirely and scrubs every marking
// referencing it from all members. No absence effects, no audit entries.
func (e *Engine) AbortSession(ctx context.Context, c caller.Context, sessionID string) error {
	if !c.IsAdmin {
		return ErrUnauthorized
	}

	sess, err := e.Meetings.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		return err
	}
	if !sess.Open {
		return fmt.Errorf("%w: session %s is already closed", ErrInvalidState, sessionID)
	}

	err = txn.Run(ctx, e.DB, e.Log, func(ctx context.Context) error {
		if _, err := e.Members.PullMarkingFromAll(ctx, sessionID); err != nil {
			return err
		}
		return e.Meetings.Delete(ctx, sessionID)
	})
	if err != nil {
		return e.writeFailure("abort session", err)
	}

	e.Log.Info("attendance session aborted",
		zap.String("session_id", sessionID),
		zap.String("admin", c.Username))
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Check-in                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// CheckInResult reports which member a scan marked, and how.
type CheckInResult struct {
	SessionID      string
	MarkedUsername string
	Kind           string // present | proxy
	AlreadyMarked  bool
}

// CheckIn records presence for a scanned session payload.
//
// If the caller has an approved proxy request standing in for another
// member on this session, the marking lands on the represented member
// with kind proxy; otherwise the caller is marked present themselves.
// Scanning twice is idempotent: the conditional insert is a no-op when a
// marking for the session already exists.
func (e *Engine) CheckIn(ctx context.Context, c caller.Context, payload string) (CheckInResult, error) {
	sessionID := normalize.SessionID(payload)
	if sessionID == "" {
		return CheckInResult{}, fmt.Errorf("%w: empty scan payload", ErrInvalidInput)
	}

	sess, err := e.Meetings.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return CheckInResult{}, fmt.Errorf("%w: no active session with that code", ErrNotFound)
		}
		return CheckInResult{}, err
	}
	if !sess.Open {
		return CheckInResult{}, fmt.Errorf("%w: no active session with that code", ErrNotFound)
	}

	target := normalize.Username(c.Username)
	kind := models.MarkingPresent
	if req, err := e.Proxies.FindApprovedFor(ctx, sessionID, c.Username); err == nil {
		target = req.ProxyingFor
		kind = models.MarkingProxy
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return CheckInResult{}, err
	}

	if _, err := e.Members.GetByUsername(ctx, target); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return CheckInResult{}, fmt.Errorf("%w: member %s", ErrNotFound, target)
		}
		return CheckInResult{}, err
	}

	added, err := e.Members.AddMarking(ctx, target, models.Marking{SessionID: sessionID, Kind: kind})
	if err != nil {
		return CheckInResult{}, err
	}

	e.Log.Info("check-in recorded",
		zap.String("session_id", sessionID),
		zap.String("scanner", c.Username),
		zap.String("marked", target),
		zap.String("kind", kind),
		zap.Bool("already_marked", !added))
	return CheckInResult{
		SessionID:      sessionID,
		MarkedUsername: target,
		Kind:           kind,
		AlreadyMarked:  !added,
	}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Proxy workflow                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SubmitProxyInput carries a new proxy request. SessionID must be the
// currently open session's id (the verified QR payload).
type SubmitProxyInput struct {
	SessionID   string
	ProxyName   string
	ProxyingFor string
	Description string
}

// SubmitProxy files a pending proxy request. No member state changes
// until an admin approves it.
func (e *Engine) SubmitProxy(ctx context.Context, c caller.Context, in SubmitProxyInput) (models.ProxyRequest, error) {
	sessionID := normalize.SessionID(in.SessionID)
	if sessionID == "" || normalize.Username(in.ProxyName) == "" || normalize.Username(in.ProxyingFor) == "" {
		return models.ProxyRequest{}, fmt.Errorf("%w: session id, proxy name, and member are required", ErrInvalidInput)
	}
	if in.Description == "" {
		return models.ProxyRequest{}, fmt.Errorf("%w: a reason is required", ErrInvalidInput)
	}

	sess, err := e.Meetings.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ProxyRequest{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		return models.ProxyRequest{}, err
	}
	if !sess.Open {
		return models.ProxyRequest{}, fmt.Errorf("%w: session %s is not open", ErrInvalidState, sessionID)
	}

	if _, err := e.Members.GetByUsername(ctx, in.ProxyingFor); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ProxyRequest{}, fmt.Errorf("%w: member %s", ErrNotFound, normalize.Username(in.ProxyingFor))
		}
		return models.ProxyRequest{}, err
	}

	return e.Proxies.Submit(ctx, models.ProxyRequest{
		SessionID:   sessionID,
		ProxyName:   in.ProxyName,
		ProxyingFor: in.ProxyingFor,
		Description: htmlsanitize.StripTags(in.Description),
	})
}

// ApproveProxy approves a pending request: the represented member gains
// a proxy marking (an existing marking for the session is kept; Present
// is never downgraded), absences are recomputed from markings, the
// request moves to the approved collection, and an audit entry is
// written. The whole change is one logical unit.
func (e *Engine) ApproveProxy(ctx context.Context, c caller.Context, requestID string) error {
	if !c.IsAdmin {
		return ErrUnauthorized
	}

	req, err := e.Proxies.GetPending(ctx, requestID)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
		// Distinguish "already approved" from "never existed".
		if _, aerr := e.Proxies.GetApproved(ctx, requestID); aerr == nil {
			return fmt.Errorf("%w: request %s is already approved", ErrInvalidState, requestID)
		}
		return fmt.Errorf("%w: proxy request %s", ErrNotFound, requestID)
	}

	member, err := e.Members.GetByUsername(ctx, req.ProxyingFor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: member %s", ErrNotFound, req.ProxyingFor)
		}
		return err
	}

	total, err := e.Meetings.Count(ctx)
	if err != nil {
		return err
	}

	_, hadMarking := member.MarkingFor(req.SessionID)

	err = txn.Run(ctx, e.DB, e.Log, func(ctx context.Context) error {
		desc := fmt.Sprintf("Admin (%s) approved proxy for %s on session %s (%s attending)",
			c.Username, member.Username, req.SessionID, req.ProxyName)

		if hadMarking {
			desc += "; existing marking kept"
		} else {
			added, err := e.Members.AddMarking(ctx, member.Username,
				models.Marking{SessionID: req.SessionID, Kind: models.MarkingProxy})
			if err != nil {
				return err
			}
			if added {
				markings := append(withoutSession(member.Markings, req.SessionID),
					models.Marking{SessionID: req.SessionID, Kind: models.MarkingProxy})
				newAbs := RecomputeAbsences(total, markings)
				if err := e.Members.SetAbsences(ctx, member.Username, newAbs); err != nil {
					return err
				}
				desc += fmt.Sprintf("; absences now %d", newAbs)
			} else {
				// A concurrent scan marked the member between our read
				// and the insert; same policy as hadMarking.
				desc += "; existing marking kept"
			}
		}

		if err := e.Proxies.InsertApproved(ctx, *req); err != nil {
			return err
		}
		if err := e.Proxies.DeletePending(ctx, req.ID); err != nil {
			return err
		}

		return e.Audit.Append(ctx, models.EditEntry{
			Username:      member.Username,
			AdminUsername: c.Username,
			SessionID:     req.SessionID,
			Description:   desc,
		})
	})
	if err != nil {
		return e.writeFailure("approve proxy", err)
	}

	e.Log.Info("proxy request approved",
		zap.String("request_id", req.ID),
		zap.String("session_id", req.SessionID),
		zap.String("member", member.Username),
		zap.String("admin", c.Username))
	return nil
}

// RejectProxy deletes a pending request. No member or audit mutation.
func (e *Engine) RejectProxy(ctx context.Context, c caller.Context, requestID string) error {
	if !c.IsAdmin {
		return ErrUnauthorized
	}

	if err := e.Proxies.DeletePending(ctx, requestID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: proxy request %s", ErrNotFound, requestID)
		}
		return err
	}

	e.Log.Info("proxy request rejected",
		zap.String("request_id", requestID),
		zap.String("admin", c.Username))
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Manual edits                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// SetMarking sets a member's status for one session to present, proxy,
// or absent. Any existing marking for the session is removed, the new
// one inserted unless absent, absences recomputed from the markings set,
// and an audit entry appended naming the admin and the old/new status.
func (e *Engine) SetMarking(ctx context.Context, c caller.Context, username, sessionID, status string) error {
	if !c.IsAdmin {
		return ErrUnauthorized
	}
	switch status {
	case StatusPresent, StatusProxy, StatusAbsent:
	default:
		return fmt.Errorf("%w: status must be present, absent, or proxy", ErrInvalidInput)
	}

	member, err := e.Members.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: member %s", ErrNotFound, normalize.Username(username))
		}
		return err
	}
	if _, err := e.Meetings.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		return err
	}

	total, err := e.Meetings.Count(ctx)
	if err != nil {
		return err
	}

	oldStatus := StatusAbsent
	if mk, ok := member.MarkingFor(sessionID); ok {
		oldStatus = mk.Kind
	}

	newMarkings := withoutSession(member.Markings, sessionID)
	if status != StatusAbsent {
		newMarkings = append(newMarkings, models.Marking{SessionID: sessionID, Kind: status})
	}
	newAbs := RecomputeAbsences(total, newMarkings)

	err = txn.Run(ctx, e.DB, e.Log, func(ctx context.Context) error {
		if err := e.Members.RemoveMarking(ctx, member.Username, sessionID); err != nil {
			return err
		}
		if status != StatusAbsent {
			if _, err := e.Members.AddMarking(ctx, member.Username,
				models.Marking{SessionID: sessionID, Kind: status}); err != nil {
				return err
			}
		}
		if err := e.Members.SetAbsences(ctx, member.Username, newAbs); err != nil {
			return err
		}
		return e.Audit.Append(ctx, models.EditEntry{
			Username:      member.Username,
			AdminUsername: c.Username,
			SessionID:     sessionID,
			Description: fmt.Sprintf("Admin (%s) set %s to %q for session %s (was %q); absences now %d",
				c.Username, member.Username, status, sessionID, oldStatus, newAbs),
		})
	})
	if err != nil {
		return e.writeFailure("set marking", err)
	}

	e.Log.Info("attendance marking set",
		zap.String("member", member.Username),
		zap.String("session_id", sessionID),
		zap.String("old_status", oldStatus),
		zap.String("new_status", status),
		zap.Int("absences", newAbs),
		zap.String("admin", c.Username))
	return nil
}

// SetAbsenceCount overwrites a member's stored absence count without
// reconciling against markings. This is the explicitly lower-consistency
// override path; the count must be a non-negative integer.
func (e *Engine) SetAbsenceCount(ctx context.Context, c caller.Context, username string, count int) error {
	if !c.IsAdmin {
		return ErrUnauthorized
	}
	if count < 0 {
		return fmt.Errorf("%w: absence count must be a non-negative integer", ErrInvalidInput)
	}

	user := normalize.Username(username)
	err := txn.Run(ctx, e.DB, e.Log, func(ctx context.Context) error {
		if err := e.Members.SetAbsences(ctx, user, count); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return fmt.Errorf("%w: member %s", ErrNotFound, user)
			}
			return err
		}
		return e.Audit.Append(ctx, models.EditEntry{
			Username:      user,
			AdminUsername: c.Username,
			Description: fmt.Sprintf("Admin (%s) set absence count for %s to %d (raw override)",
				c.Username, user, count),
		})
	})
	if err != nil {
		return e.writeFailure("set absence count", err)
	}

	e.Log.Info("absence count overridden",
		zap.String("member", user),
		zap.Int("count", count),
		zap.String("admin", c.Username))
	return nil
}

// ResetAbsences zeroes every member's absence count in one batch,
// skipping members already at zero. Markings are untouched. One summary
// audit entry is written for the batch rather than per-member entries.
func (e *Engine) ResetAbsences(ctx context.Context, c caller.Context) (int64, error) {
	if !c.IsAdmin {
		return 0, ErrUnauthorized
	}

	var updated int64
	err := txn.Run(ctx, e.DB, e.Log, func(ctx context.Context) error {
		n, err := e.Members.ResetAllAbsences(ctx)
		if err != nil {
			return err
		}
		updated = n
		return e.Audit.Append(ctx, models.EditEntry{
			Username:      "*",
			AdminUsername: c.Username,
			Description: fmt.Sprintf("Admin (%s) reset all absence counts to 0 (%d members updated)",
				c.Username, n),
		})
	})
	if err != nil {
		return 0, e.writeFailure("reset absences", err)
	}

	e.Log.Info("all absences reset",
		zap.Int64("members_updated", updated),
		zap.String("admin", c.Username))
	return updated, nil
}

// writeFailure classifies an error out of a write batch: validation
// sentinels pass through, anything else is surfaced as a write conflict
// so callers know the batch may need a retry.
func (e *Engine) writeFailure(op string, err error) error {
	if IsValidation(err) {
		return err
	}
	e.Log.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%w: %s: %v", ErrWriteConflict, op, err)
}
