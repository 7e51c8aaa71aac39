package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var validPositions = map[string]struct{}{"top": {}, "center": {}, "bottom": {}}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateSubtitle(); err != nil {
		return err
	}
	if err := c.validateBackground(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validatePublish()
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.fps":    c.Video.FPS,
		"video.width":  c.Video.Width,
		"video.height": c.Video.Height,
	}); err != nil {
		return err
	}
	if !isFinite(c.Video.TargetDuration) || c.Video.TargetDuration <= 0 {
		return errors.New("video.target_duration must be a positive number of seconds")
	}
	return nil
}

func (c *Config) validateSubtitle() error {
	if _, ok := validPositions[c.Subtitle.Position]; !ok {
		return fmt.Errorf("subtitle.position must be one of top, center, bottom (got %q)", c.Subtitle.Position)
	}
	if c.Subtitle.Margin < 0 {
		return errors.New("subtitle.margin must not be negative")
	}
	if !isFinite(c.Subtitle.FadeDuration) || c.Subtitle.FadeDuration < 0 {
		return errors.New("subtitle.fade_duration must not be negative")
	}
	return nil
}

func (c *Config) validateBackground() error {
	if !isFinite(c.Background.Volume) || c.Background.Volume < 0 || c.Background.Volume > 1 {
		return errors.New("background.volume must be between 0 and 1")
	}
	if !isHexColor(c.Background.Color) {
		return fmt.Errorf("background.color must be #RRGGBB (got %q)", c.Background.Color)
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must not be negative")
	}
	if c.Batch.RenderTimeout < 0 {
		return errors.New("batch.render_timeout must not be negative (seconds, 0 disables)")
	}
	if c.Batch.MemoryPerRenderMiB <= 0 {
		return errors.New("batch.memory_per_render_mib must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Publish.Bucket == "" {
		return errors.New("publish.bucket must be set when publish.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func isHexColor(value string) bool {
	if len(value) != 7 || !strings.HasPrefix(value, "#") {
		return false
	}
	_, err := strconv.ParseUint(value[1:], 16, 32)
	return err == nil
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
