package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"syncplaylists/sync"
	"syncplaylists/transcoding"
	"syncplaylists/transcoding/codecs"
	"syncplaylists/uiout"
)

var version = "undefined (dev?)"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

type cliFlags struct {
	dryRun      bool
	del         bool
	debug       bool
	exclude     []string
	verbose     int
	forceVFAT   bool
	concurrency int
	configFile  string
	profileFile string
	printConfig bool
}

func newRootCmd() *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:     "syncplaylists PLAYLIST [PLAYLIST...] DESTDIR",
		Short:   "Synchronize music playlists to a target directory, transcoding as configured",
		Version: version,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.printConfig {
				fmt.Println(transcoding.SampleConfig())
				return nil
			}

			var configPath *string
			if cmd.Flags().Changed("config-file") {
				configPath = &flags.configFile
			}

			if flags.debug {
				logNonDefaultFlags(cmd.Flags())
			}

			playlists := args[:len(args)-1]
			destDir := args[len(args)-1]
			return run(cmd.Context(), playlists, destDir, flags, configPath)
		},
	}

	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Do not modify anything on the filesystem; report what would happen.")
	cmd.Flags().BoolVarP(&flags.del, "delete", "d", false, "Delete stale files from the destination that no longer correspond to any source file.")
	cmd.Flags().BoolVarP(&flags.debug, "debug", "D", false, "Log at debug level.")
	cmd.Flags().StringArrayVarP(&flags.exclude, "exclude", "e", nil, "Path beneath the destination to exclude from synchronization and deletion. Repeatable.")
	cmd.Flags().CountVarP(&flags.verbose, "verbose", "v", "Increase log verbosity. May be repeated.")
	cmd.Flags().BoolVarP(&flags.forceVFAT, "force-vfat", "V", false, "Always legalize destination paths as though the destination were a VFAT filesystem.")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", runtime.NumCPU(), "Maximum number of files to transcode concurrently.")
	cmd.Flags().StringVarP(&flags.configFile, "config-file", "c", "", "Path to transcoding.yaml. Pass an empty string to disable config loading entirely; omit to use the XDG default location.")
	cmd.Flags().StringVarP(&flags.profileFile, "profile-file", "p", "", "If set, write a CPU profile to this path.")
	cmd.Flags().BoolVar(&flags.printConfig, "print-sample-config", false, "Print a sample transcoding.yaml and exit.")

	return cmd
}

// externalProcessFactories is the fixed catalog of transcoder names this
// binary knows how to build, independent of whatever the user's
// transcoding.yaml happens to mention under settings:. A name in
// settings: with no entry here is rejected by NewRegistry with
// *UnknownTranscoderError; settings: only ever supplies options for one
// of these names, mirroring the original's class-derived, compile-time
// fixed transcoder catalog (gstreamerffmpeg.py, codecs/basic.py).
func externalProcessFactories() map[transcoding.Name]transcoding.Factory {
	build := func(settings map[string]any) (transcoding.Transcoder, error) {
		return codecs.NewExternalProcess(settings)
	}
	names := []transcoding.Name{
		"flvmp4webmtomp3",
		"extractaudio",
		"flvmp4webmtowav",
		"audiotomp3",
		"audiotowav",
		"wavtoogg",
		"wavtoopus",
	}
	factories := make(map[transcoding.Name]transcoding.Factory, len(names))
	for _, name := range names {
		factories[name] = build
	}
	return factories
}

// logNonDefaultFlags prints every flag the user explicitly set, for
// diagnosing a run from its log output alone.
func logNonDefaultFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			fmt.Fprintf(os.Stderr, "flag %s=%s\n", f.Name, f.Value.String())
		}
	})
}

func run(ctx context.Context, playlists []string, destDir string, flags cliFlags, configPath *string) error {
	logger := logrus.New()
	switch {
	case flags.debug || flags.verbose >= 2:
		logger.SetLevel(logrus.DebugLevel)
	case flags.verbose == 1:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	ctx = uiout.WithLogger(ctx, logger, flags.verbose > 0)

	if flags.profileFile != "" {
		f, err := os.Create(flags.profileFile)
		if err != nil {
			return fmt.Errorf("creating profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	quitSig := make(chan os.Signal, 1)
	signal.Notify(quitSig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		select {
		case <-quitSig:
			uiout.Out(ctx).Log("received interrupt, finishing in-flight work and stopping")
			uiout.ShowTerminalCursor()
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg, err := transcoding.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("loading transcoding configuration: %w", err)
	}

	registry, err := transcoding.NewRegistry(externalProcessFactories(), cfg.Settings)
	if err != nil {
		return fmt.Errorf("building transcoder registry: %w", err)
	}

	// Matches the original synchronizer CLI's PolicyBasedPipelineSelector
	// wiring: no implicit fallback, so a file outside every configured
	// policy is reported as unsyncable rather than silently copied.
	selector := transcoding.NewPolicySelector(cfg.Policies, false)
	mapper := transcoding.NewMapper(registry, selector)

	excludeBeneath := make([]string, len(flags.exclude))
	for i, e := range flags.exclude {
		abs, err := filepath.Abs(e)
		if err != nil {
			return fmt.Errorf("resolving exclude path %q: %w", e, err)
		}
		excludeBeneath[i] = abs
	}

	absPlaylists := make([]string, len(playlists))
	for i, p := range playlists {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving playlist path %q: %w", p, err)
		}
		absPlaylists[i] = abs
	}
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolving destination path %q: %w", destDir, err)
	}

	orch := &sync.Orchestrator{
		Playlists:      absPlaylists,
		TargetDir:      absDest,
		Mapper:         mapper,
		Registry:       registry,
		Postprocessor:  transcoding.DefaultPostprocessor(logger),
		ForceVFAT:      flags.forceVFAT,
		ExcludeBeneath: excludeBeneath,
		Concurrency:    int64(flags.concurrency),
		Delete:         flags.del,
		DryRun:         flags.dryRun,
		Logger:         logger,
	}

	exitCode, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}
