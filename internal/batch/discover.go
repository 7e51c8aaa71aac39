package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"themereel/internal/background"
	"themereel/internal/composition"
	"themereel/internal/config"
	"themereel/internal/layout"
)

var (
	commentAudioPattern = regexp.MustCompile(`^theme(\d+)_comment(\d+)_.*\.wav$`)
	commentImagePattern = regexp.MustCompile(`^theme(\d+)_comment(\d+)_.*\.png$`)
	titleAudioPattern   = regexp.MustCompile(`^title_theme(\d+)(?:\D.*)?\.wav$`)
)

type discoveredTheme struct {
	number int
	audio  map[int]string
	images map[int]string
	title  string
}

// Discover groups the files in dir by theme number using the
// theme<N>_comment<i>_*.wav / .png and title_theme<N>*.wav conventions.
// Comment indexes outside 1..layout.Capacity are ignored. Every request
// uses bg as its background source.
func Discover(dir string, cfg *config.Config, bg background.Source) ([]composition.ThemeRequest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read theme directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	themes := make(map[int]*discoveredTheme)
	get := func(number int) *discoveredTheme {
		theme, ok := themes[number]
		if !ok {
			theme = &discoveredTheme{number: number, audio: map[int]string{}, images: map[int]string{}}
			themes[number] = theme
		}
		return theme
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if m := titleAudioPattern.FindStringSubmatch(name); m != nil {
			theme := get(atoi(m[1]))
			if theme.title == "" {
				theme.title = path
			}
			continue
		}
		if m := commentAudioPattern.FindStringSubmatch(name); m != nil {
			if index := atoi(m[2]); index >= 1 && index <= layout.Capacity {
				theme := get(atoi(m[1]))
				if _, seen := theme.audio[index]; !seen {
					theme.audio[index] = path
				}
			}
			continue
		}
		if m := commentImagePattern.FindStringSubmatch(name); m != nil {
			if index := atoi(m[2]); index >= 1 && index <= layout.Capacity {
				theme := get(atoi(m[1]))
				if _, seen := theme.images[index]; !seen {
					theme.images[index] = path
				}
			}
		}
	}

	numbers := make([]int, 0, len(themes))
	for number, theme := range themes {
		if len(theme.audio) > 0 {
			numbers = append(numbers, number)
		}
	}
	sort.Ints(numbers)

	video, subtitle := composition.SettingsFromConfig(cfg)
	outputDir := ""
	if cfg != nil {
		outputDir = cfg.Paths.OutputDir
	}
	requests := make([]composition.ThemeRequest, 0, len(numbers))
	for _, number := range numbers {
		theme := themes[number]
		indexes := make([]int, 0, len(theme.audio))
		for index := range theme.audio {
			indexes = append(indexes, index)
		}
		sort.Ints(indexes)

		audio := make([]string, len(indexes))
		var images []string
		for pos, index := range indexes {
			audio[pos] = theme.audio[index]
			if image, ok := theme.images[index]; ok {
				if images == nil {
					images = make([]string, len(indexes))
				}
				images[pos] = image
			}
		}
		name := "theme" + strconv.Itoa(number)
		requests = append(requests, composition.ThemeRequest{
			ThemeName:      name,
			TitleKey:       name,
			AudioSegments:  audio,
			SubtitleImages: images,
			TitleAudio:     theme.title,
			Background:     bg,
			OutputPath:     filepath.Join(outputDir, name+".mp4"),
			Video:          video,
			Subtitle:       subtitle,
		})
	}
	return requests, nil
}

func atoi(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}
