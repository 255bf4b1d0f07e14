package core

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 100 * time.Millisecond

type Reloadable interface {
	Reload() error
}

// Watcher re-parses templates and notifies browsers when files under the
// watched directories change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	target   Reloadable
	onReload func()
	logger   zerolog.Logger
}

func NewWatcher(target Reloadable, onReload func(), logger zerolog.Logger, dirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err == nil && info.IsDir() {
				if addErr := fsw.Add(path); addErr != nil {
					logger.Warn().Err(addErr).Str("_dir", path).Msg("cannot watch directory")
				}
			}
			return nil
		})
	}

	return &Watcher{
		fsw:      fsw,
		target:   target,
		onReload: onReload,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is done or the underlying watcher closes.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug().Str("_file", ev.Name).Str("_op", ev.Op.String()).Msg("file changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		case <-fire:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	if w.target != nil {
		if err := w.target.Reload(); err != nil {
			w.logger.Error().Err(err).Msg("template reload failed")
			return
		}
	}
	w.logger.Info().Msg("templates reloaded")

	if w.onReload != nil {
		w.onReload()
	}
}
