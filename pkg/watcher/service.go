// Package watcher monitors photo directories so a freshly taken picture can
// be attached to the waypoint being annotated.
package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Service polls photo directories for images newer than the last check.
type Service struct {
	paths          []string
	mu             sync.Mutex
	lastChecked    time.Time
	lastNewestFile string
}

// NewService creates a monitor over the given directories. With no paths it
// falls back to the user's Pictures folder. Missing directories are only
// warned about: a camera mount may appear later.
func NewService(paths []string) (*Service, error) {
	if len(paths) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home dir: %w", err)
		}
		paths = []string{filepath.Join(home, "Pictures")}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			slog.Warn("photo watcher: directory does not exist", "path", path)
		}
	}

	return &Service{
		paths:       paths,
		lastChecked: time.Now(),
	}, nil
}

// CheckNew returns the newest photo added since the last successful check
// across all monitored directories, or ok=false when nothing new appeared.
func (s *Service) CheckNew() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newestFile string
	var newestTime time.Time
	var newestDir string

	for _, path := range s.paths {
		entries, err := os.ReadDir(path)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !isPhoto(entry.Name()) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				continue
			}
			modTime := info.ModTime()

			if modTime.After(s.lastChecked) && modTime.After(newestTime) {
				newestTime = modTime
				newestFile = entry.Name()
				newestDir = path
			}
		}
	}

	if newestFile != "" && newestFile != s.lastNewestFile {
		s.lastChecked = newestTime
		s.lastNewestFile = newestFile
		fullPath := filepath.Join(newestDir, newestFile)
		slog.Info("photo watcher: new photo detected", "file", newestFile, "dir", newestDir)
		return fullPath, true
	}

	return "", false
}

func isPhoto(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".heic", ".webp":
		return true
	}
	return false
}
