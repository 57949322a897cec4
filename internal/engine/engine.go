package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stackvity/devicesettings/internal/filestore"
	"github.com/stackvity/devicesettings/internal/filesystem"
	"github.com/stackvity/devicesettings/internal/modeswitch"
	"github.com/stackvity/devicesettings/internal/profile"
	"github.com/stackvity/devicesettings/internal/props"
)

const defaultDebounce = 300 * time.Millisecond

type fsWatcher interface {
	Add(name string) error
	Remove(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type realWatcher struct {
	*fsnotify.Watcher
}

func (w realWatcher) Events() <-chan fsnotify.Event { return w.Watcher.Events }
func (w realWatcher) Errors() <-chan error          { return w.Watcher.Errors }

// newWatcher is replaced in tests.
var newWatcher = func() (fsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return realWatcher{w}, nil
}

// Engine ties a device profile to the file and property stores.
type Engine struct {
	ProfilePath string
	FS          filesystem.FileSystem
	Files       *filestore.Store
	Props       *props.Store
	Logger      *slog.Logger
	Debounce    time.Duration

	mu      sync.RWMutex
	profile *profile.Profile
}

// NewEngine creates a new Engine. Load must be called before use.
func NewEngine(
	profilePath string,
	fs filesystem.FileSystem,
	files *filestore.Store,
	propStore *props.Store,
	logger *slog.Logger,
	debounce time.Duration,
) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		ProfilePath: profilePath,
		FS:          fs,
		Files:       files,
		Props:       propStore,
		Logger:      logger,
		Debounce:    debounce,
	}
}

// Load reads the profile. On failure the previously loaded profile is kept.
func (e *Engine) Load() error {
	p, err := profile.Load(e.FS, e.ProfilePath)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.profile = p
	e.mu.Unlock()
	e.Logger.Debug("Profile loaded", "path", e.ProfilePath, "device", p.Device, "nodes", len(p.Nodes))
	return nil
}

// Profile returns the current profile, or an empty one before Load.
func (e *Engine) Profile() *profile.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.profile == nil {
		return &profile.Profile{}
	}
	return e.profile
}

// Controller builds a controller over the current profile.
func (e *Engine) Controller() *modeswitch.Controller {
	p := e.Profile()
	return modeswitch.NewController(p, p, e.Files, e.Props, e.Logger)
}

// Snapshot reads the state of every switch in the profile.
func (e *Engine) Snapshot() Report {
	start := time.Now()
	p := e.Profile()
	ctrl := modeswitch.NewController(p, p, e.Files, e.Props, e.Logger)

	report := Report{Device: p.Device}
	for _, sw := range ctrl.Switches() {
		st := SwitchStatus{
			ID:        sw.ID(),
			Title:     p.Title(sw.ID()),
			Path:      sw.Path(),
			Supported: sw.IsSupported(),
		}
		if e.Files.IsReadable(st.Path) {
			st.Enabled = sw.IsCurrentlyEnabled()
			st.Value = e.Files.ReadString(st.Path, "")
		}
		if v, ok := ctrl.Saved(sw.ID()); ok {
			st.Saved = OnOff(v)
		}
		report.add(st)
	}
	report.Duration = time.Since(start)
	return report
}

// Restore replays recorded switch values.
func (e *Engine) Restore() []modeswitch.RestoreResult {
	results := e.Controller().Restore()
	applied := 0
	for _, r := range results {
		if r.Applied {
			applied++
		} else {
			e.Logger.Warn("Could not restore switch", "switch", r.ID, "reason", r.Reason)
		}
	}
	e.Logger.Info("Restore finished", "recorded", len(results), "applied", applied)
	return results
}

// Watch emits a snapshot immediately and again whenever the profile or one of
// its node files changes, debounced. A profile that fails to reload is
// reported and the previous profile stays in effect. Watch returns
// context.Canceled once ctx is done.
func (e *Engine) Watch(ctx context.Context, onReport func(Report)) error {
	watcher, err := newWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	profileDir := filepath.Dir(e.ProfilePath)
	if err := watcher.Add(profileDir); err != nil {
		return fmt.Errorf("failed to watch profile directory '%s': %w", profileDir, err)
	}
	watched := make(map[string]bool)
	e.syncNodeWatches(watcher, watched)

	onReport(e.Snapshot())
	e.Logger.Info("Watching for changes...", "profile", e.ProfilePath)

	debounce := e.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	var (
		debounceTimer *time.Timer
		reloadPending bool
	)
	trigger := make(chan struct{}, 1)
	profileName := filepath.Clean(e.ProfilePath)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			e.Logger.Info("Received cancellation signal, exiting watch mode.")
			return context.Canceled

		case event, ok := <-watcher.Events():
			if !ok {
				return errors.New("watcher event channel closed")
			}
			isProfile := filepath.Clean(event.Name) == profileName
			if !isProfile && !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			e.Logger.Debug("Watcher event received", "event", event.String())
			if isProfile {
				reloadPending = true
			} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// inotify drops the watch with the inode; re-added on the next sync.
				delete(watched, filepath.Clean(event.Name))
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			if reloadPending {
				reloadPending = false
				if err := e.Load(); err != nil {
					e.Logger.Error("Profile reload failed, keeping previous profile", "error", err)
				}
			}
			e.syncNodeWatches(watcher, watched)
			onReport(e.Snapshot())

		case err, ok := <-watcher.Errors():
			if !ok {
				return errors.New("watcher error channel closed")
			}
			e.Logger.Error("File watcher error encountered, attempting to continue", "error", err)
		}
	}
}

// syncNodeWatches watches the node files of the current profile and drops
// watches on nodes that are no longer listed. Nodes that do not exist are
// skipped; they are retried on the next sync.
func (e *Engine) syncNodeWatches(watcher fsWatcher, watched map[string]bool) {
	want := make(map[string]bool)
	for _, path := range e.Profile().Paths() {
		want[filepath.Clean(path)] = true
	}
	for path := range watched {
		if !want[path] {
			_ = watcher.Remove(path)
			delete(watched, path)
		}
	}
	for path := range want {
		if watched[path] || !e.Files.Exists(path) {
			continue
		}
		if err := watcher.Add(path); err != nil {
			e.Logger.Debug("Could not watch control node", "path", path, "error", err)
			continue
		}
		watched[path] = true
	}
}
