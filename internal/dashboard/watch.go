package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/logging"
)

// watchFiles reloads the rows when either input file changes. Bursts of
// events are coalesced into one reload.
func (s *Server) watchFiles(ctx context.Context) error {
	log := logging.Get(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.store.Dir()); err != nil {
		log.Error().Err(err).Str("dir", s.store.Dir()).Msg("failed to watch data directory")
		<-ctx.Done()
		return nil
	}

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDataFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			log.Trace().Str("file", event.Name).Str("op", event.Op.String()).Msg("data file changed")
			reload = time.After(reloadDebounce)

		case <-reload:
			reload = nil
			if err := s.Reload(ctx); err != nil {
				log.Warn().Err(err).Msg("reload failed, keeping previous data")
				continue
			}
			log.Info().Msg("dashboard data reloaded")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}

func isDataFile(name string) bool {
	switch filepath.Base(name) {
	case constants.SymbolsFile, constants.DividendSymbolsFile:
		return true
	default:
		return false
	}
}
