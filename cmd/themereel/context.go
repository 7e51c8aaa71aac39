package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"themereel/internal/background"
	"themereel/internal/batch"
	"themereel/internal/composition"
	"themereel/internal/config"
	"themereel/internal/encoding"
	"themereel/internal/history"
	"themereel/internal/logging"
	"themereel/internal/media/ffprobe"
	"themereel/internal/services/objectstore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// pipeline bundles the wired render stack for one command invocation.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	prober   *ffprobe.Prober
	composer *composition.Composer
}

func (c *commandContext) buildPipeline() (*pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	prober := ffprobe.NewProber(cfg.FFprobeBinary())
	resolver := background.NewResolver(prober, background.SettingsFromConfig(cfg), logger)
	encoder := encoding.NewFFmpegEncoder(cfg.FFmpegBinary(), cfg.Paths.TempDir, logger)
	return &pipeline{
		cfg:      cfg,
		logger:   logger,
		prober:   prober,
		composer: composition.NewComposer(prober, resolver, encoder, logger),
	}, nil
}

// runnerOptions wires history and publishing into batch options. The
// returned cleanup closes the history store.
func (p *pipeline) runnerOptions(ctx context.Context, workers int, publish bool) (batch.Options, func(), error) {
	opts := batch.Options{
		Workers:     workers,
		Timeout:     p.cfg.RenderTimeout(),
		Logger:      p.logger,
		LockDir:     p.cfg.Paths.OutputDir,
		LockOutputs: true,
	}
	store, err := history.Open(p.cfg)
	if err != nil {
		return batch.Options{}, nil, err
	}
	opts.Recorder = store
	cleanup := func() { _ = store.Close() }

	if publish || p.cfg.Publish.Enabled {
		publisher, err := objectstore.New(ctx, objectstore.SettingsFromConfig(p.cfg))
		if err != nil {
			cleanup()
			return batch.Options{}, nil, err
		}
		opts.Publisher = publisher
	}
	return opts, cleanup, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
