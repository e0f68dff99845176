package ingest

import (
	"context"
	"fmt"
	"os"
	"time"
)

// WaitForMarker polls for the upstream preprocessing stage's completion
// marker file. It returns nil once the marker exists, or an error when the
// timeout elapses or ctx is cancelled first. The marker's content is
// irrelevant; only its presence gates the run.
func WaitForMarker(ctx context.Context, path string, interval, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("marker file %s did not appear within %s", path, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
