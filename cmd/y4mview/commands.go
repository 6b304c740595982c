package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ugparu/y4mstream"
	"github.com/ugparu/y4mstream/config"
	"github.com/ugparu/y4mstream/format/y4m"
	"github.com/ugparu/y4mstream/reader"
	"github.com/ugparu/y4mstream/server"
	"github.com/ugparu/y4mstream/utils/logger"
	"github.com/ugparu/y4mstream/utils/screenshoter"
)

const (
	name         = "Y4MVIEW"
	closeTimeout = 5 * time.Second
)

// options holds flag values overriding the configuration file.
type options struct {
	configPath string
	input      string
	url        string
	ffmpegBin  string
	addr       string
	logLevel   string
	chunkSize  int
	width      int
	height     int
	quality    int
	output     string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "y4mview",
		Short:         "Preview the latest frame of a YUV4MPEG2 stream",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&opts.input, "input", "i", "", "stream file, - for stdin")
	flags.StringVar(&opts.url, "url", "", "media URL transcoded by ffmpeg instead of reading input")
	flags.StringVar(&opts.ffmpegBin, "ffmpeg", "", "ffmpeg binary")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warning, error)")
	flags.IntVar(&opts.chunkSize, "chunk-size", 0, "read size in bytes")
	flags.IntVar(&opts.width, "width", 0, "snapshot width, 0 keeps aspect ratio")
	flags.IntVar(&opts.height, "height", 0, "snapshot height, 0 keeps aspect ratio")
	flags.IntVar(&opts.quality, "quality", 0, "snapshot JPEG quality")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest frame over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the first completed frame as JPEG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return snapshot(cmd.Context(), cfg, opts.output, opts.timeout)
		},
	}
	snapshotCmd.Flags().StringVarP(&opts.output, "output", "o", "snapshot.jpg", "output JPEG file")
	snapshotCmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "maximum time to wait for a frame")

	rootCmd.AddCommand(serveCmd, snapshotCmd)
	return rootCmd
}

// loadConfig reads the configuration file and applies changed flags on top.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Input = opts.input
	}
	if changed("url") {
		cfg.FFmpeg.URL = opts.url
	}
	if changed("ffmpeg") {
		cfg.FFmpeg.Bin = opts.ffmpegBin
	}
	if changed("addr") {
		cfg.HTTP.Addr = opts.addr
	}
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if changed("chunk-size") {
		cfg.ChunkSize = opts.chunkSize
	}
	if changed("width") {
		cfg.Snapshot.Width = opts.width
	}
	if changed("height") {
		cfg.Snapshot.Height = opts.height
	}
	if changed("quality") {
		cfg.Snapshot.Quality = opts.quality
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	lvl, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.Init(lvl)
	return cfg, nil
}

// openInput returns the configured stream producer.
func openInput(ctx context.Context, cfg *config.Config) (io.ReadCloser, string, error) {
	if cfg.FFmpeg.URL != "" {
		src, err := reader.NewFFmpeg(ctx, cfg.FFmpeg.Bin, cfg.FFmpeg.URL, cfg.FFmpeg.Args...)
		return src, cfg.FFmpeg.URL, err
	}
	if cfg.Input == "" || cfg.Input == config.StdinInput {
		return os.Stdin, "stdin", nil
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input: %w", err)
	}
	return f, cfg.Input, nil
}

func startPipeline(ctx context.Context, cfg *config.Config) (*y4m.Reader, y4mstream.Source, error) {
	input, label, err := openInput(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store := y4m.New(cfg.MaxHeaderLen)
	src := reader.New(label, input, store, cfg.ChunkSize)
	src.Read()
	return store, src, nil
}

// closeSource stops src, giving up when a blocking read cannot be interrupted,
// as with a terminal on stdin.
func closeSource(src y4mstream.Source) {
	closed := make(chan struct{})
	go func() {
		src.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(closeTimeout):
		logger.Warning(name, "Source did not stop in time")
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, src, err := startPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource(src)

	shots := screenshoter.New(store, cfg.Snapshot.Width, cfg.Snapshot.Height, cfg.Snapshot.Quality)
	srv := server.New(cfg.HTTP.Addr, store, shots)
	if err = srv.Serve(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	defer srv.Close()

	select {
	case <-ctx.Done():
		logger.Info(name, "Shutdown signal received")
	case <-src.Done():
		if err = src.Err(); err != nil {
			return err
		}
		logger.Info(name, "Stream finished, serving last frame until interrupted")
		select {
		case <-ctx.Done():
		case <-srv.Done():
			return fmt.Errorf("HTTP server stopped: %w", srv.Err())
		}
	case <-srv.Done():
		return fmt.Errorf("HTTP server stopped: %w", srv.Err())
	}
	return nil
}

func snapshot(ctx context.Context, cfg *config.Config, output string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	store, src, err := startPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource(src)

	shots := screenshoter.New(store, cfg.Snapshot.Width, cfg.Snapshot.Height, cfg.Snapshot.Quality)
	ticker := time.NewTicker(10 * time.Millisecond) //nolint:mnd
	defer ticker.Stop()

	for {
		seq, jpg, err := shots.Screenshot()
		switch {
		case err == nil:
			logger.Infof(name, "Writing frame %d to %s", seq, output)
			return os.WriteFile(output, jpg, 0o644) //nolint:gosec
		case !errors.Is(err, screenshoter.ErrNoFrame):
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("no frame received: %w", ctx.Err())
		case <-src.Done():
			if err = src.Err(); err != nil {
				return err
			}
			if store.Seq() == y4mstream.NoFrame {
				return errors.New("stream ended before the first frame")
			}
		case <-ticker.C:
		}
	}
}
