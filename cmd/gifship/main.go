package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/gifship/internal/cliconfig"
	"github.com/bft-labs/gifship/pkg/gifship"
	"github.com/bft-labs/gifship/pkg/log"
)

const helpDescription = `
Record the screen into an animated GIF.

Frames are captured at a fixed rate on a pool of workers and written to the
capture directory as numbered PNG files. When the recording ends, the frames
are encoded in order into a single GIF whose frame delay matches the capture
interval.

A recording ends after --duration, when the --stop-file appears, or on
Ctrl-C. Frames already being captured are still written and encoded.
`

var exampleUsage = strings.TrimSpace(`
  gifship --fps 15 --duration 2s
  gifship --duration 0 --stop-file /tmp/gifship.stop --loop
  gifship --backend portal --out-dir ~/Videos/gifs
  gifship encode ~/Desktop/out/captured --output replay.gif
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// loadConfig layers file, environment and flags, in increasing precedence.
	loadConfig := func(cmd *cobra.Command) (log.Logger, error) {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		// Build set of changed flags
		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return nil, fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return nil, err
			}
		}

		// Apply environment variables (GIFSHIP_*)
		// These override file config but are overridden by flags (checked via changed map)
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return nil, err
		}

		// Validate and set derived defaults
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		zl = zl.Level(log.ParseLevel(cfg.LogLevel))
		zl.Info().Interface("config", cfg).Msg("configuration")
		return log.NewZerologAdapterWithLogger(zl), nil
	}

	newGifship := func(logger log.Logger) (*gifship.Gifship, error) {
		var region image.Rectangle
		if cfg.Region != "" {
			r, err := cliconfig.ParseRegion(cfg.Region)
			if err != nil {
				return nil, err
			}
			region = r
		}
		return gifship.New(gifship.Config{
			CaptureDir:    cfg.CaptureDir,
			OutputFile:    cfg.OutputFile,
			FPS:           cfg.FPS,
			Duration:      cfg.Duration,
			StopFile:      cfg.StopFile,
			Workers:       cfg.Workers,
			Loop:          cfg.Loop,
			Comment:       cfg.Comment,
			Backend:       cfg.Backend,
			Region:        region,
			PortalTimeout: cfg.PortalTimeout,
		}, gifship.WithLogger(logger))
	}

	root := &cobra.Command{
		Use:           "gifship",
		Short:         "Record the screen into an animated GIF",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			g, err := newGifship(logger)
			if err != nil {
				return fmt.Errorf("create gifship: %w", err)
			}

			// Setup signal handling: the first signal ends capture, encoding still runs
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					zl.Info().Msg("received signal, finishing recording...")
					cancel()
				case <-ctx.Done():
				}
			}()

			zl.Info().
				Int("fps", cfg.FPS).
				Dur("duration", cfg.Duration).
				Str("capture_dir", cfg.CaptureDir).
				Msg("recording")

			report, err := g.Record(ctx)
			if err != nil {
				return err
			}
			printReport(zl, report, cfg.OutputFile)
			return nil
		},
	}

	encodeCmd := &cobra.Command{
		Use:   "encode [capture-dir]",
		Short: "Encode an existing capture directory into a GIF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			g, err := newGifship(logger)
			if err != nil {
				return fmt.Errorf("create gifship: %w", err)
			}

			dir := cfg.CaptureDir
			if len(args) == 1 {
				dir = args[0]
			}
			report, err := g.Encode(cmd.Context(), dir)
			if err != nil {
				return err
			}
			printReport(zl, report, cfg.OutputFile)
			return nil
		},
	}
	root.AddCommand(encodeCmd)

	// Flags shared by recording and encoding
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.gifship/config.toml)")
	pf.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "base output directory (default: $HOME/Desktop/out)")
	pf.StringVar(&cfg.CaptureDir, "capture-dir", cfg.CaptureDir, "directory for captured frames (default: <out-dir>/captured)")
	pf.StringVarP(&cfg.OutputFile, "output", "o", cfg.OutputFile, "GIF file to write (default: <out-dir>/out.gif)")
	pf.IntVar(&cfg.FPS, "fps", cfg.FPS, "frames per second; also sets the frame delay")
	pf.BoolVar(&cfg.Loop, "loop", cfg.Loop, "repeat the animation forever instead of playing it once")
	pf.StringVar(&cfg.Comment, "comment", cfg.Comment, "comment embedded in the GIF (empty for none)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	// Recording only
	root.Flags().DurationVarP(&cfg.Duration, "duration", "d", cfg.Duration, "recording length (0 to stop only via --stop-file or Ctrl-C)")
	root.Flags().StringVar(&cfg.StopFile, "stop-file", cfg.StopFile, "stop recording when this file appears")
	root.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "maximum concurrent captures")
	root.Flags().StringVar(&cfg.Backend, "backend", cfg.Backend, "capture backend: screenshot or portal")
	root.Flags().StringVar(&cfg.Region, "region", cfg.Region, "capture only x,y,width,height (screenshot backend)")
	root.Flags().DurationVar(&cfg.PortalTimeout, "portal-timeout", cfg.PortalTimeout, "how long to wait for each portal screenshot")
	if err := root.Flags().MarkHidden("portal-timeout"); err != nil {
		zl.Info().Err(err).Msg("failed to hide portal-timeout flag")
	}

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("gifship")
		os.Exit(1)
	}
}

func printReport(zl zerolog.Logger, r gifship.Report, output string) {
	ev := zl.Info().
		Str("output", output).
		Int("frames", r.Frames).
		Uint64("issued", r.Issued).
		Int("interval_ms", r.IntervalMillis).
		Int("delay", r.Delay).
		Dur("elapsed", r.Elapsed)
	if len(r.Failed) > 0 {
		ev = ev.Interface("failed", r.Failed)
	}
	ev.Msg("gif written")
}
