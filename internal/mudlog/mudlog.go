// Package mudlog provides the server's category log sink: one append-only,
// structured log file per category, per spec.md §6 ("logs (one file per
// category)").
package mudlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Category names match the teacher's historical log filenames.
const (
	Connect  = "connect"
	Commands = "commands"
	Bans     = "bans"
	ErrorLog = "error"
)

var (
	mu      sync.Mutex
	dir     string
	loggers = map[string]*logrus.Logger{}
)

// Bootstrap points the sink at logDir, creating it if necessary. Must be
// called once before any Get call; safe to call again to retarget (e.g. on
// a config hot-reload).
func Bootstrap(logDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("creating log directory %s: %w", logDir, err)
	}
	dir = logDir
	loggers = map[string]*logrus.Logger{}
	return nil
}

// Get returns the logger for category, creating its backing file on first
// use. Falls back to stderr if Bootstrap was never called (e.g. in tests),
// so callers never need a nil check.
func Get(category string) *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)

	if dir != "" {
		path := filepath.Join(dir, "log."+category)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			l.SetOutput(f)
		} else {
			l.WithError(err).Warnf("falling back to stderr for log category %q", category)
		}
	}

	loggers[category] = l
	return l
}
