package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JPM1118/matthumb/internal/assets"
	"github.com/JPM1118/matthumb/internal/logging"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Generate thumbnails, then regenerate them whenever materials change",
	Long: `watch generates every thumbnail once, then reruns for material files
that change under the source folder.

Texture meta files are re-indexed before each rerun, so a texture added or
moved since the last run is picked up by the next material change. Editing a
texture alone does not trigger a rerun; touch a material that uses it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

func init() {
	addRunFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 250*time.Millisecond, "quiet period before a change triggers a run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Msg("close session")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := assets.NewWatcher(cfg.SourceDir(), cfg.Project.Extension, watchDebounce)
	if err != nil {
		return err
	}
	go watcher.Run(ctx)

	paths, err := s.enumerate()
	if err != nil {
		return err
	}
	if err := s.watchRun(ctx, paths); err != nil {
		return err
	}
	log.Info().Str("source", cfg.SourceDir()).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors():
			log.Warn().Err(err).Msg("watch")
		case changed, ok := <-watcher.Batches():
			if !ok {
				return nil
			}
			if err := s.watchRun(ctx, s.refresh(changed)); err != nil {
				return err
			}
		}
	}
}

// refresh re-indexes textures, drops cached previews for changed files and
// returns the ones that still exist, in the order given.
func (s *session) refresh(changed []string) []string {
	if err := s.index.Reload(s.cfg.Project.AssetsDir); err != nil {
		s.log.Warn().Err(err).Msg("reindex textures")
	}
	live := make([]string, 0, len(changed))
	for _, p := range changed {
		if rel, err := s.db.Resolve(p); err == nil {
			s.previews.Forget(rel)
		}
		if _, err := os.Stat(p); err == nil {
			live = append(live, p)
		}
	}
	return live
}

// watchRun drains paths headlessly. Runs never overlap: the loop waits for
// each one, and the driver rejects a second concurrent drive.
func (s *session) watchRun(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	run := s.newRun(paths)
	start := time.Now()
	err := s.drainHeadless(ctx, run)
	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		return fmt.Errorf("drain: %w", err)
	}
	snap := run.Snapshot()
	s.log.Info().
		Int("written", snap.Counts.Written).
		Int("skipped", snap.Counts.Skipped+snap.Counts.Expired).
		Int("failed", snap.Counts.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")
	return nil
}
