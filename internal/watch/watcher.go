package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
)

// Notifier receives change signals. rebuild.Trigger implements it.
type Notifier interface {
	Notify(source string)
}

// Watcher reports changes below a docset root. New directories are watched
// as they appear.
type Watcher struct {
	root    string
	notify  Notifier
	skip    map[string]struct{}
	watcher *fsnotify.Watcher
}

// New creates a watcher for root. skipDirs are root-relative directories
// whose contents never signal, such as the output directory.
func New(root string, notify Notifier, skipDirs ...string) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve docset path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	skip := make(map[string]struct{}, len(skipDirs))
	for _, d := range skipDirs {
		skip[filepath.ToSlash(filepath.Clean(d))] = struct{}{}
	}
	return &Watcher{root: abs, notify: notify, skip: skip, watcher: fw}, nil
}

// Run watches until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	slog.Info("Watching docset", logfields.Docset(w.root))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok || w.ignored(rel) {
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if event.Has(fsnotify.Create) {
		if err := w.addTree(event.Name); err != nil {
			slog.Debug("Not watching new entry", logfields.File(rel), logfields.Error(err))
		}
	}
	slog.Debug("File change detected", logfields.File(rel), slog.String("op", event.Op.String()))
	w.notify.Notify(rel)
}

// addTree watches dir and every directory below it. A file is ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(p); ok && rel != "." && w.ignored(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) relative(p string) (string, bool) {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || (rel != "." && !filepath.IsLocal(rel)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// ignored reports whether a root-relative path is hidden, an editor
// temporary file, or inside a skipped directory.
func (w *Watcher) ignored(rel string) bool {
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ".") {
			return true
		}
		if _, ok := w.skip[strings.Join(parts[:i+1], "/")]; ok {
			return true
		}
	}
	return temporaryFile(parts[len(parts)-1])
}

func temporaryFile(name string) bool {
	switch {
	case strings.HasSuffix(name, "~"),
		strings.HasSuffix(name, ".swp"),
		strings.HasSuffix(name, ".swx"),
		strings.HasSuffix(name, ".tmp"),
		strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#"),
		name == "4913":
		return true
	}
	return false
}
