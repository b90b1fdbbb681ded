// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/rollcall/internal/app/store/editlog"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Mode controls where audit entries go:
//
//	"all" - manualEdits collection + zap
//	"db"  - manualEdits collection only
//	"log" - zap only
//	"off" - disabled
const (
	ModeAll = "all"
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Logger writes immutable audit entries for every administrative
// mutation to attendance data, mirroring them to structured logs.
//
// Append is called with the transaction context of the mutation it
// describes, so the entry commits or rolls back with the change itself.
type Logger struct {
	store  *editlog.Store
	zapLog *zap.Logger
	mode   string
}

// New creates an audit Logger. An empty mode defaults to ModeAll.
func New(store *editlog.Store, zapLog *zap.Logger, mode string) *Logger {
	if mode == "" {
		mode = ModeAll
	}
	return &Logger{store: store, zapLog: zapLog, mode: mode}
}

// Append records one entry. Nil receiver is a no-op so tests can pass a
// nil audit logger.
func (l *Logger) Append(ctx context.Context, e models.EditEntry) error {
	if l == nil || l.mode == ModeOff {
		return nil
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}

	if l.mode == ModeAll || l.mode == ModeLog {
		l.logToZap(e)
	}
	if l.mode == ModeAll || l.mode == ModeDB {
		return l.store.Append(ctx, e)
	}
	return nil
}

// AppendMany records a batch of entries (session-close increments).
func (l *Logger) AppendMany(ctx context.Context, entries []models.EditEntry) error {
	if l == nil || l.mode == ModeOff || len(entries) == 0 {
		return nil
	}

	if l.mode == ModeAll || l.mode == ModeLog {
		for _, e := range entries {
			l.logToZap(e)
		}
	}
	if l.mode == ModeAll || l.mode == ModeDB {
		return l.store.AppendMany(ctx, entries)
	}
	return nil
}

func (l *Logger) logToZap(e models.EditEntry) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("username", e.Username),
		zap.String("admin", e.AdminUsername),
		zap.String("description", e.Description),
	}
	if e.SessionID != "" {
		fields = append(fields, zap.String("session_id", e.SessionID))
	}
	l.zapLog.Info("attendance edit", fields...)
}
