package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the watcher waits for a burst of editor writes
// to settle before reloading
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the definitions whenever a YAML file below the base path
// changes and hands them to onChange
type Watcher struct {
	loader   *DataLoader
	debounce time.Duration
	log      logrus.FieldLogger
	onChange func(*Definitions) error
	ready    chan struct{}
}

// NewWatcher creates a watcher for the loader's definition folders
func NewWatcher(loader *DataLoader, log logrus.FieldLogger, onChange func(*Definitions) error) *Watcher {
	return &Watcher{
		loader:   loader,
		debounce: DefaultDebounce,
		log:      log,
		onChange: onChange,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the watches are in place
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// SetDebounce changes the settle time
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is done. Directories are watched rather than files
// so that editors replacing a file by rename are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	dirs, err := w.dirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.log.WithField("dirs", len(dirs)).Info("watching definitions")
	close(w.ready)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fsw.Add(event.Name)
					continue
				}
			}
			if !isYAMLFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = event.Name
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watcher error")

		case <-timer.C:
			w.reload(pending)
		}
	}
}

func (w *Watcher) reload(changed string) {
	log := w.log.WithField("file", changed)

	defs, err := w.loader.LoadAll()
	if err != nil {
		log.WithError(err).Error("definitions rejected, keeping previous state")
		return
	}

	log.WithFields(logrus.Fields{
		"targets": len(defs.Targets),
		"hosts":   len(defs.Hosts),
		"groups":  len(defs.Groups),
	}).Info("definitions changed, applying")

	if err := w.onChange(defs); err != nil {
		log.WithError(err).Error("apply failed")
	}
}

// dirs returns the base path and every directory below it
func (w *Watcher) dirs() ([]string, error) {
	var dirs []string
	err := filepath.Walk(w.loader.BasePath(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", w.loader.BasePath(), err)
	}
	return dirs, nil
}
