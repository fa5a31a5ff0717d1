package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NethercraftMC5608/DepotDownloaderModified/internal/config"
	"github.com/NethercraftMC5608/DepotDownloaderModified/internal/download"
	"github.com/NethercraftMC5608/DepotDownloaderModified/internal/logging"
	"github.com/NethercraftMC5608/DepotDownloaderModified/internal/progress"
	"github.com/NethercraftMC5608/DepotDownloaderModified/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version      = "0.1.0"
	cfgFile      string
	progressFile string
	logLevel     string
	logFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "depotdl",
	Short: "Depot content downloader",
	Long:  `depotdl downloads depot content with taskbar progress reporting and an optional JSON progress file for wrapping tools`,
}

var getCmd = &cobra.Command{
	Use:   "get <url> <dest>",
	Short: "Download a URL to a local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGet(args[0], args[1])
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Follow a progress file until the download completes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("depotdl v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/depotdl/depotdl.yaml)")
	rootCmd.PersistentFlags().StringVar(&progressFile, "progress-file", "", "JSON progress file path (overrides DEPOTDOWNLOADER_PROGRESS_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the config file with flag overrides and wires up
// logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if progressFile != "" {
		cfg.ProgressFile = progressFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	cfg.Validate()

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = logging.TeeWriter(os.Stderr, rw)
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, out)

	return cfg, nil
}

func runGet(url, dest string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(progress.Options{FilePath: cfg.ProgressFile})
	reporter.Initialize()

	d := download.New(&download.Config{
		ChunkSize: cfg.ChunkSizeBytes,
		Timeout:   time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		UserAgent: cfg.UserAgent + "/" + version,
	}, reporter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return d.Get(ctx, url, dest)
}

func runWatch(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := watch.New(watch.Options{
		Path:     path,
		Interval: time.Duration(cfg.WatchIntervalMs) * time.Millisecond,
		Colorize: term.IsTerminal(int(os.Stdout.Fd())),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
