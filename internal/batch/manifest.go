package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"themereel/internal/background"
	"themereel/internal/composition"
	"themereel/internal/config"
	"themereel/internal/services"
	"themereel/internal/textutil"
)

// Manifest lists the themes of one batch.
type Manifest struct {
	Themes []ManifestTheme `toml:"theme"`
}

// ManifestTheme is one [[theme]] table. Relative input paths resolve
// against the manifest's directory; a relative output resolves against the
// configured output directory.
type ManifestTheme struct {
	Name       string   `toml:"name"`
	TitleKey   string   `toml:"title_key"`
	Audio      []string `toml:"audio"`
	Captions   []string `toml:"captions"`
	Subtitles  []string `toml:"subtitles"`
	TitleAudio string   `toml:"title_audio"`
	TitleText  string   `toml:"title_text"`
	TitleImage string   `toml:"title_image"`
	Background string   `toml:"background"`
	Output     string   `toml:"output"`
}

// LoadManifest parses the TOML manifest at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, services.Wrap(services.ErrConfiguration, "batch", "parse manifest", path, err)
	}
	if len(manifest.Themes) == 0 {
		return Manifest{}, services.Wrap(services.ErrConfiguration, "batch", "parse manifest", path+" declares no [[theme]] tables", nil)
	}
	return manifest, nil
}

// Requests converts the manifest into theme requests using cfg for render
// settings. baseDir anchors relative input paths.
func (m Manifest) Requests(cfg *config.Config, baseDir string) []composition.ThemeRequest {
	video, subtitle := composition.SettingsFromConfig(cfg)
	outputDir := ""
	if cfg != nil {
		outputDir = cfg.Paths.OutputDir
	}
	requests := make([]composition.ThemeRequest, 0, len(m.Themes))
	for i, theme := range m.Themes {
		name := strings.TrimSpace(theme.Name)
		if name == "" {
			name = fmt.Sprintf("theme%d", i+1)
		}
		bg := background.ParseSource(theme.Background)
		if bg.Mode == background.ModeExplicit {
			bg.Path = resolvePath(baseDir, bg.Path)
		}
		output := strings.TrimSpace(theme.Output)
		if output == "" {
			output = textutil.OutputFileName(name, fmt.Sprintf("theme%d", i+1))
		}
		requests = append(requests, composition.ThemeRequest{
			ThemeName:      name,
			TitleKey:       strings.TrimSpace(theme.TitleKey),
			AudioSegments:  resolvePaths(baseDir, theme.Audio),
			CaptionTexts:   append([]string(nil), theme.Captions...),
			SubtitleImages: resolvePaths(baseDir, theme.Subtitles),
			TitleAudio:     resolvePath(baseDir, theme.TitleAudio),
			TitleText:      theme.TitleText,
			TitleImage:     resolvePath(baseDir, theme.TitleImage),
			Background:     bg,
			OutputPath:     resolvePath(outputDir, output),
			Video:          video,
			Subtitle:       subtitle,
		})
	}
	return requests
}

func resolvePaths(baseDir string, values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = resolvePath(baseDir, value)
	}
	return out
}

// resolvePath keeps "" as absent and expands ~ before anchoring.
func resolvePath(baseDir, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "~") {
		if expanded, err := config.ExpandPath(value); err == nil {
			value = expanded
		}
	}
	if filepath.IsAbs(value) || baseDir == "" {
		return filepath.Clean(value)
	}
	return filepath.Join(baseDir, value)
}
