// Command export renders a stored video's timeline to files without
// running the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/astro-analytics/video-tagging-go/internal/config"
	"github.com/astro-analytics/video-tagging-go/internal/service"
	"github.com/astro-analytics/video-tagging-go/internal/store"
	"github.com/astro-analytics/video-tagging-go/internal/validation"
	"github.com/astro-analytics/video-tagging-go/pkg/logger"
	"go.uber.org/zap"
)

const formatAll = "all"

var allFormats = []string{service.FormatXLSX, service.FormatJSON, service.FormatManifest}

type exporter interface {
	Export(ctx context.Context, key, format string) (*service.ExportArtifact, error)
}

type options struct {
	key    string
	format string
	outDir string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	opts, err := parseFlags(os.Args[1:], cfg.Export.OutputDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	backend, err := store.OpenBackend(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Error("Failed to open store", zap.Error(err))
		os.Exit(1)
	}
	records := store.NewRecordStore(backend, nil)
	defer func() { _ = records.Close() }()

	svc := service.NewTaggingService(records, validation.New(cfg.Vocabulary), nil, service.Settings{
		MaxAgeDays: cfg.Retention.MaxAgeDays,
	})
	defer svc.Close()

	if cfg.RabbitMQ.Enabled {
		publisher, err := service.NewExportPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Log.Warn("Export publisher unavailable, ML exports will not be announced", zap.Error(err))
		} else {
			defer func() { _ = publisher.Close() }()
			svc.SetPublisher(publisher)
		}
	}

	if err := run(ctx, svc, opts, os.Stdout); err != nil {
		logger.Log.Error("Export failed", zap.Error(err), zap.String("videoId", opts.key))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func parseFlags(args []string, defaultOut string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.key, "key", "", "Video key (video_<name>_<size>_<lastModified>)")
	fs.StringVar(&opts.format, "format", formatAll, "Export format: xlsx, json, manifest, or all")
	fs.StringVar(&opts.outDir, "out", defaultOut, "Directory to write export files to")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.key == "" {
		return opts, errors.New("-key is required")
	}
	if _, err := formatsFor(opts.format); err != nil {
		return opts, err
	}
	return opts, nil
}

func formatsFor(format string) ([]string, error) {
	if format == formatAll {
		return allFormats, nil
	}
	for _, f := range allFormats {
		if f == format {
			return []string{f}, nil
		}
	}
	return nil, fmt.Errorf("unknown format %q: want xlsx, json, manifest, or all", format)
}

// run writes one file per requested format. Nothing is written for a
// format whose export fails.
func run(ctx context.Context, svc exporter, opts options, stdout io.Writer) error {
	formats, err := formatsFor(opts.format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, format := range formats {
		artifact, err := svc.Export(ctx, opts.key, format)
		if err != nil {
			return fmt.Errorf("export %s: %w", format, err)
		}

		path := filepath.Join(opts.outDir, artifact.Filename)
		if err := writeFileAtomic(path, artifact.Data); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		logger.Log.Info("Export written",
			zap.String("format", format),
			zap.String("path", path),
			zap.Int("bytes", len(artifact.Data)),
		)
		fmt.Fprintln(stdout, path)
	}

	return nil
}

// writeFileAtomic stages data in a temp file next to dest and renames it
// into place, so dest is either absent or complete.
func writeFileAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
