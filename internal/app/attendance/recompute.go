// internal/app/attendance/recompute.go
package attendance

import "github.com/dalemusser/rollcall/internal/domain/models"

// RecomputeAbsences derives the canonical absence count from a member's
// markings: count(sessions) minus the number of distinct session ids the
// member holds a marking for. A proxy marking counts as attended.
//
// Every mutation path that changes markings goes through this single
// function, so the stored count cannot drift from the derived one. The
// raw admin override is the one exempt path.
func RecomputeAbsences(totalSessions int64, markings []models.Marking) int {
	distinct := make(map[string]struct{}, len(markings))
	for _, mk := range markings {
		distinct[mk.SessionID] = struct{}{}
	}

	n := int(totalSessions) - len(distinct)
	if n < 0 {
		// Markings referencing aborted sessions are scrubbed, but a
		// stale read could still see more markings than sessions.
		n = 0
	}
	return n
}

// withoutSession returns markings minus any entry for sessionID.
func withoutSession(markings []models.Marking, sessionID string) []models.Marking {
	out := make([]models.Marking, 0, len(markings))
	for _, mk := range markings {
		if mk.SessionID != sessionID {
			out = append(out, mk)
		}
	}
	return out
}
