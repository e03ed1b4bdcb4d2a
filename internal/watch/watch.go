// Package watch rebuilds the index when local document files change.
// Directories are watched rather than files, so editors that replace a file
// on save are still seen. Bursts of events collapse into one rebuild.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tbourn/catecismo-search/internal/search"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 500 * time.Millisecond

// Rebuilder replaces the index. *services.Session implements it.
type Rebuilder interface {
	Rebuild(ctx context.Context) (search.Report, error)
}

// Watcher triggers rebuilds for a fixed set of files.
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	rb       Rebuilder
	debounce time.Duration
	log      zerolog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(w *Watcher) { w.log = l } }

// New returns a Watcher for the given file paths.
func New(paths []string, rb Rebuilder, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watch: no files")
	}
	w := &Watcher{
		files:    make(map[string]struct{}, len(paths)),
		rb:       rb,
		debounce: DefaultDebounce,
		log:      zerolog.Nop(),
	}
	seen := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		w.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// relevant reports whether ev changes the content of a watched file.
// Chmod-only events are ignored.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

// Run watches until ctx is done. Rebuild errors are logged, never returned.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	for _, d := range w.dirs {
		if err := fw.Add(d); err != nil {
			return err
		}
	}
	w.log.Info().Strs("dirs", w.dirs).Int("files", len(w.files)).Msg("asset watcher started")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("asset changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Stop()
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			rep, err := w.rb.Rebuild(ctx)
			ev := w.log.Info()
			if err != nil {
				ev = w.log.Warn().Err(err)
			}
			ev.Str("state", string(rep.State)).Int("entries", rep.Entries).Msg("rebuild after asset change")
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("asset watcher error")
		}
	}
}
