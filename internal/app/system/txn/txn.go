// internal/app/system/txn/txn.go

// Package txn runs multi-document mutations inside a MongoDB transaction
// when the deployment supports them (replica set / sharded cluster), and
// degrades to plain sequential execution on standalone servers.
//
// Callers must issue every store operation with the context passed to
// their callback so the writes join the transaction session.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn atomically when possible.
//
// With transaction support, either every write in fn commits or none do.
// Without it (standalone mongod), fn runs without a session; callers are
// expected to order their writes so a partial failure is recoverable:
// member-side updates first, the session-state write last.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	session, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logger.Warn("transactions unavailable; running without atomicity", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logger.Warn("transactions unavailable; running without atomicity", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// Codes mongod returns when transactions cannot be used on this topology.
const (
	codeIllegalOperation     = 20
	codeCommandNotSupported  = 51
	codeOperationNotSupMongo = 263
)

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (typically a standalone mongod).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case codeIllegalOperation, codeCommandNotSupported, codeOperationNotSupMongo:
			return true
		}
	}

	// Driver and server wordings vary across versions; fall back to
	// keyword matching on the message.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set") {
		return true
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "session") {
		return true
	}
	if strings.Contains(msg, "illegal operation") && strings.Contains(msg, "transaction") {
		return true
	}
	return false
}
