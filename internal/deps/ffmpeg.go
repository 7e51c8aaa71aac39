package deps

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// RequiredFilters are the ffmpeg filters used by the encoder's graphs.
var RequiredFilters = []string{
	"adelay", "amix", "anullsrc", "apad", "atrim", "color",
	"drawtext", "fade", "overlay", "tpad", "trim", "volume",
}

// Tools lists the binaries needed to probe and render.
func Tools(ffmpegBinary, ffprobeBinary string) []Tool {
	return []Tool{
		{Name: "FFmpeg", Command: ffmpegBinary, Purpose: "mixing and rendering"},
		{Name: "FFprobe", Command: ffprobeBinary, Purpose: "media inspection"},
	}
}

// CheckFFmpegFilters reports whether every filter in required is compiled
// into binary. drawtext in particular needs an ffmpeg built with freetype.
func CheckFFmpegFilters(ctx context.Context, binary string, required []string) Status {
	status := Status{Name: "FFmpeg filters", Command: binary}
	if strings.TrimSpace(binary) == "" {
		status.Detail = "command not configured"
		return status
	}
	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-filters").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("list filters: %v", err)
		return status
	}
	available := ParseFilterList(string(output))
	var missing []string
	for _, name := range required {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		status.Detail = "missing: " + strings.Join(missing, ", ")
		return status
	}
	status.Available = true
	status.Detail = fmt.Sprintf("%d required filters present", len(required))
	return status
}

// ParseFilterList extracts filter names from `ffmpeg -filters` output.
// Filter rows look like " T.C drawtext          V->V       Draw text".
func ParseFilterList(output string) map[string]struct{} {
	filters := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.Contains(fields[2], "->") {
			continue
		}
		filters[fields[1]] = struct{}{}
	}
	return filters
}
