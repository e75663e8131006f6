package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nicobailon/mediasection/internal/config"
	"github.com/nicobailon/mediasection/internal/deps"
	"github.com/nicobailon/mediasection/internal/logging"
	"github.com/nicobailon/mediasection/internal/recent"
	"github.com/nicobailon/mediasection/internal/rest"
	"github.com/nicobailon/mediasection/internal/shell"
	"github.com/nicobailon/mediasection/internal/tui"
	"github.com/nicobailon/mediasection/internal/worker"
)

var version = "dev"

var (
	serverFlag  string
	projectFlag string
	sectionFlag string
	searchFlag  string
	levelFlag   string
	verboseFlag bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "mediasection",
	Short:         "Browse and manage one media section of a Tator project",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Version = version
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&serverFlag, "server", "", "Media server URL")
	pf.StringVarP(&projectFlag, "project", "p", "", "Project id")
	pf.StringVarP(&sectionFlag, "section", "s", "", `Section name ("null" for the unnamed section)`)
	pf.StringVar(&searchFlag, "search", "", "Search carried into annotation links")
	pf.StringVar(&levelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(recentCmd)
}

// services are the long lived collaborators shared by the TUI and the
// one-shot commands.
type services struct {
	cfg    *config.Config
	log    zerolog.Logger
	closer io.Closer
	client *rest.Client
	worker *worker.Worker
	recent *recent.Store
}

func (s *services) Close() {
	if s.worker != nil {
		s.worker.Stop()
		s.worker.Wait()
	}
	if s.recent != nil {
		if err := s.recent.Save(); err != nil {
			s.log.Warn().Err(err).Msg("save recent sections")
		}
	}
	_ = s.closer.Close()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if serverFlag != "" {
		cfg.Server = serverFlag
	}
	if projectFlag != "" {
		cfg.ProjectID = projectFlag
	}
	if sectionFlag != "" {
		cfg.Section = sectionFlag
	}
	if searchFlag != "" {
		cfg.Search = searchFlag
	}
	if levelFlag != "" {
		cfg.LogLevel = levelFlag
	}
	return cfg, nil
}

func loadServices(console bool) (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("no project configured (use --project or project_id)")
	}

	log, closer, err := logging.New(logging.Options{
		Path:    cfg.LogFile,
		Level:   cfg.LogLevel,
		Console: console,
	})
	if err != nil {
		return nil, err
	}

	client, err := rest.NewClient(rest.Options{
		Server:            cfg.Server,
		Credentials:       cfg.Credentials(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		RetryMax:          cfg.RetryMax,
		Timeout:           cfg.RequestTimeout,
		Logger:            log.With().Str("component", "rest").Logger(),
	})
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	w, err := worker.New(cfg.CacheSize, log.With().Str("component", "worker").Logger())
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	store, err := recent.Load(config.Dir())
	if err != nil {
		log.Warn().Err(err).Msg("load recent sections")
		store = nil
	}

	return &services{cfg: cfg, log: log, closer: closer, client: client, worker: w, recent: store}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the section browser needs a terminal; see --help for one-shot commands")
	}

	svc, err := loadServices(false)
	if err != nil {
		return err
	}
	defer svc.Close()

	var opener tui.Opener
	missing := deps.Check()
	if len(missing) == 0 {
		opener = shell.NewOpener(&shell.ExecCommander{})
	}
	for _, dep := range missing {
		svc.log.Info().Str("dependency", dep.Name).Str("hint", deps.InstallHint(dep)).Msg("optional dependency missing")
	}

	ctx, cancel := signalContext()
	defer cancel()

	app := tui.New(tui.Deps{
		Cfg:     svc.cfg,
		Backend: svc.client,
		Worker:  svc.worker,
		Recent:  svc.recent,
		Opener:  opener,
		Log:     svc.log.With().Str("component", "tui").Logger(),
	})
	outcome, err := app.Run(ctx)
	if err != nil {
		return err
	}
	if outcome != nil && outcome.Remove != nil {
		fmt.Printf("Removed section %q (%s)\n", outcome.Remove.Name, outcome.Remove.Filter.Predicate())
	}
	return nil
}
