package sqlite

import "context"

// RecordEvent appends a row to the audit-trail events table, giving the
// "event" search target (spec.md §4.6) concrete rows to retrieve.
// Capture handlers call this for notable occurrences (session
// start/end, checkpoint creation, suppressed writes).
func (s *Store) RecordEvent(ctx context.Context, sessionID, eventType, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (session_id, event_type, summary) VALUES (?, ?, ?)
	`, sessionID, eventType, summary)
	return err
}
