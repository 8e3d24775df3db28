package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JPM1118/matthumb/internal/assets"
	"github.com/JPM1118/matthumb/internal/config"
	"github.com/JPM1118/matthumb/internal/drain"
	"github.com/JPM1118/matthumb/internal/logging"
	"github.com/JPM1118/matthumb/internal/metrics"
	"github.com/JPM1118/matthumb/internal/notify"
	"github.com/JPM1118/matthumb/internal/preview"
	"github.com/JPM1118/matthumb/internal/thumbnail"
	"github.com/JPM1118/matthumb/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a thumbnail for every material in the source folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	addRunFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

// session holds the collaborators shared by every run in one process.
type session struct {
	cfg      config.Config
	log      zerolog.Logger
	db       *assets.Database
	index    *assets.GUIDIndex
	previews *preview.Generator
	sink     thumbnail.Writer
	recorder *metrics.Recorder
	driver   *drain.Driver
}

func newSession(cfg config.Config, log zerolog.Logger) (*session, error) {
	if err := assets.EnsureDir(cfg.Output.Dir); err != nil {
		return nil, err
	}
	resolver, err := assets.NewResolver(cfg.Project.AssetsDir)
	if err != nil {
		return nil, err
	}
	index, err := assets.BuildGUIDIndex(cfg.Project.AssetsDir)
	if err != nil {
		return nil, err
	}
	previews, err := preview.NewGenerator(index, preview.Options{
		Size:      cfg.Preview.Size,
		Workers:   cfg.Preview.Workers,
		CacheSize: cfg.Preview.CacheSize,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("preview generator: %w", err)
	}
	recorder, err := metrics.NewRecorder()
	if err != nil {
		previews.Close()
		return nil, err
	}

	log.Debug().
		Str("assets", resolver.DataPath()).
		Int("textures", index.Len()).
		Msg("session ready")

	return &session{
		cfg:      cfg,
		log:      log,
		db:       assets.NewDatabase(resolver),
		index:    index,
		previews: previews,
		sink: thumbnail.Writer{
			Dir:    cfg.Output.Dir,
			Prefix: cfg.Output.Prefix,
			Size:   cfg.Output.Size,
		},
		recorder: recorder,
		driver:   drain.NewDriver(cfg.Drain.TickInterval.Duration),
	}, nil
}

// Close stops background renders and writes the metrics textfile.
func (s *session) Close() error {
	s.previews.Close()
	return s.recorder.WriteTextfile(s.cfg.Metrics.Textfile)
}

// enumerate lists the materials to process.
func (s *session) enumerate() ([]string, error) {
	return assets.Enumerate(s.cfg.SourceDir(), s.cfg.Project.Extension)
}

func (s *session) newRun(paths []string) *drain.Run {
	return drain.NewRun(paths, drain.Deps{
		Assets:   s.db,
		Previews: s.previews,
		Sink:     s.sink,
		Observer: s.recorder,
	}, drain.Limits{
		ItemTimeout:     s.cfg.Drain.ItemTimeout.Duration,
		MaxStalledTicks: s.cfg.Drain.MaxStalledTicks,
	}, s.log)
}

// drainHeadless drives run on the session's driver, logging each finished
// item, until the run is done or ctx is cancelled.
func (s *session) drainHeadless(ctx context.Context, run *drain.Run) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.driver.Drive(ctx, run)
	}()

	for {
		select {
		case u := <-s.driver.Updates():
			s.logStep(u)
		case err := <-errCh:
			for {
				select {
				case u := <-s.driver.Updates():
					s.logStep(u)
				default:
					return err
				}
			}
		}
	}
}

func (s *session) logStep(u drain.Update) {
	if !u.Step.Outcome.Advanced() {
		return
	}
	ev := s.log.Info()
	if u.Step.Err != nil {
		ev = s.log.Warn().Err(u.Step.Err)
	}
	ev.Str("outcome", u.Step.Outcome.String()).
		Str("path", u.Step.Path).
		Str("output", u.Step.Output).
		Int("done", u.Snapshot.Cursor).
		Int("total", u.Snapshot.Total).
		Msg("item")
}

// drainInteractive runs the TUI until the run is done or the user quits.
func (s *session) drainInteractive(run *drain.Run) (bool, error) {
	var opts []tui.Option
	if s.cfg.Notifications.TerminalBell {
		bell := notify.NewBell(s.cfg.Notifications.BellDebounce.Duration, []string{
			drain.StateDone.String(),
			drain.OutcomeFailed.String(),
			drain.OutcomeExpired.String(),
		})
		opts = append(opts, tui.WithBell(bell))
	}
	model := tui.NewDashboard(run, s.cfg.Drain.TickInterval.Duration, opts...)

	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("dashboard: %w", err)
	}
	if m, ok := finalModel.(tui.Dashboard); ok {
		return m.Interrupted(), nil
	}
	return false, nil
}

func summarize(w io.Writer, snap drain.Snapshot, elapsed time.Duration) {
	c := snap.Counts
	fmt.Fprintf(w, "%d/%d materials: %d written, %d skipped, %d failed, %d expired in %s\n",
		snap.Cursor, snap.Total, c.Written, c.Skipped, c.Failed, c.Expired, elapsed.Round(time.Millisecond))
}

func runGenerate(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interactive := !overrides.headless && logging.IsTerminal(os.Stdout)

	// The TUI owns the screen while it runs; hold log lines until it exits.
	var held bytes.Buffer
	logOut := io.Writer(os.Stderr)
	if interactive {
		logOut = zerolog.SyncWriter(&held)
	}
	log, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() {
		if held.Len() > 0 {
			os.Stderr.Write(held.Bytes())
		}
	}()

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Msg("close session")
		}
	}()

	paths, err := s.enumerate()
	if err != nil {
		return err
	}
	log.Info().Int("materials", len(paths)).Str("source", cfg.SourceDir()).Msg("enumerated")

	run := s.newRun(paths)
	start := time.Now()

	if interactive {
		interrupted, err := s.drainInteractive(run)
		if err != nil {
			return err
		}
		summarize(cmd.OutOrStdout(), run.Snapshot(), time.Since(start))
		if interrupted {
			return fmt.Errorf("interrupted after %d of %d materials", run.Cursor(), run.Len())
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.drainHeadless(ctx, run); err != nil {
		summarize(cmd.OutOrStdout(), run.Snapshot(), time.Since(start))
		return fmt.Errorf("drain: %w", err)
	}
	summarize(cmd.OutOrStdout(), run.Snapshot(), time.Since(start))
	return nil
}
