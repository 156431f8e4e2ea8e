// Package maintenance holds housekeeping tasks run at startup and on a
// schedule: sweeping abandoned draft routes and purging stale export files.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rutago/pkg/store"
)

// SweepDrafts deletes routes that never received a name. A draft row is
// written the moment recording starts; if the process died before the save
// decision, the nameless draft and its points are garbage. Runs at startup,
// so no recording can be in flight.
func SweepDrafts(ctx context.Context, st store.RouteStore) (int, error) {
	routes, err := st.ListRoutes(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing routes for sweep: %w", err)
	}

	swept := 0
	for _, r := range routes {
		if strings.TrimSpace(r.Name) != "" {
			continue
		}
		if err := st.DeleteRoute(ctx, r.ID); err != nil {
			return swept, fmt.Errorf("deleting draft route %d: %w", r.ID, err)
		}
		swept++
	}
	if swept > 0 {
		slog.Info("swept abandoned draft routes", "count", swept)
	}
	return swept, nil
}

// PurgeExports removes .gpx files in dir older than maxAge. A missing
// directory counts as nothing to purge. maxAge <= 0 disables purging.
func PurgeExports(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading export dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	purged := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".gpx") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			slog.Warn("purge: could not remove export", "file", entry.Name(), "error", err)
			continue
		}
		purged++
	}
	if purged > 0 {
		slog.Info("purged stale exports", "dir", dir, "count", purged)
	}
	return purged, nil
}
