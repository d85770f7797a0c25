package testsupport

import (
	"context"
	"testing"
	"time"

	"mediafetch/internal/jobs"
)

// WaitForTerminal polls the store until the record reaches a terminal status or
// timeout expires, and returns the final snapshot.
func WaitForTerminal(t testing.TB, store jobs.Store, id string, timeout time.Duration) *jobs.Record {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		record, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("store.Get: %v", err)
		}
		if record != nil && record.IsTerminal() {
			return record
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s did not reach a terminal status within %s (last: %+v)", id, timeout, record)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
