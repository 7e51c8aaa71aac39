package encoding

import (
	"fmt"
	"strconv"
	"strings"

	"themereel/internal/composition"
)

const (
	mixSampleRate   = 48000
	audioBitrate    = "192k"
	outputPixFormat = "yuv420p"
)

var commonArgs = []string{"-hide_banner", "-nostdin", "-y", "-v", "error"}

// buildMixArgs mixes every audio layer onto a silent track of plan duration.
func buildMixArgs(plan composition.RenderPlan, mixPath string) []string {
	args := append([]string(nil), commonArgs...)
	total := seconds(plan.Duration)
	layers := plan.AudioLayers()

	if len(layers) == 0 {
		args = append(args,
			"-f", "lavfi", "-t", total, "-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo", mixSampleRate),
			"-filter_complex", fmt.Sprintf("[0:a]atrim=0:%s[mix]", total),
		)
	} else {
		var graph []string
		var labels strings.Builder
		for idx, layer := range layers {
			if layer.Loops > 1 {
				args = append(args, "-stream_loop", strconv.Itoa(layer.Loops-1))
			}
			args = append(args, "-i", layer.Path)

			volume := layer.Volume
			if volume <= 0 {
				volume = 1
			}
			delay := int64(layer.Start*1000 + 0.5)
			graph = append(graph, fmt.Sprintf(
				"[%d:a]atrim=0:%s,asetpts=PTS-STARTPTS,aresample=%d,volume=%s,adelay=%d:all=1[a%d]",
				idx, seconds(layer.Duration), mixSampleRate, trimFloat(volume), delay, idx,
			))
			fmt.Fprintf(&labels, "[a%d]", idx)
		}
		tail := fmt.Sprintf("apad=whole_dur=%s,atrim=0:%s[mix]", total, total)
		if len(layers) == 1 {
			graph = append(graph, labels.String()+tail)
		} else {
			graph = append(graph, fmt.Sprintf("%samix=inputs=%d:normalize=0:duration=longest,%s", labels.String(), len(layers), tail))
		}
		args = append(args, "-filter_complex", strings.Join(graph, ";"))
	}

	return append(args,
		"-map", "[mix]",
		"-ac", "2",
		"-ar", strconv.Itoa(mixSampleRate),
		"-c:a", "pcm_s16le",
		mixPath,
	)
}

// buildRenderArgs composes the video graph and muxes the mixed audio.
// textFiles maps overlay index (within plan.Overlays) to a caption file.
func buildRenderArgs(plan composition.RenderPlan, mixPath, outputPath string, textFiles map[int]string) []string {
	args := append([]string(nil), commonArgs...)
	total := seconds(plan.Duration)
	canvas := plan.Canvas

	var graph []string
	bg, _ := plan.Background()
	switch layer := bg.(type) {
	case composition.VideoLayer:
		if layer.Loops > 1 {
			args = append(args, "-stream_loop", strconv.Itoa(layer.Loops-1))
		}
		args = append(args, "-i", layer.Path)
		chain := "[0:v]"
		if layer.Freeze {
			chain += fmt.Sprintf("tpad=stop_mode=clone:stop_duration=%s,", total)
		}
		chain += fmt.Sprintf("trim=duration=%s,setpts=PTS-STARTPTS,fps=%d[bg]", total, canvas.FPS)
		graph = append(graph, chain)
	case composition.ColorLayer:
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%dx%d:r=%d:d=%s",
			layer.Color.Hex(), layer.Width, layer.Height, canvas.FPS, total))
		graph = append(graph, "[0:v]setpts=PTS-STARTPTS[bg]")
	}
	args = append(args, "-i", mixPath)

	current := "bg"
	nextInput := 2
	for idx, overlay := range plan.Overlays() {
		label := fmt.Sprintf("v%d", idx)
		switch layer := overlay.(type) {
		case composition.ImageOverlay:
			args = append(args, "-loop", "1", "-framerate", strconv.Itoa(canvas.FPS), "-t", total, "-i", layer.Path)
			source := fmt.Sprintf("ov%d", idx)
			chain := fmt.Sprintf("[%d:v]format=rgba", nextInput)
			if layer.Fade > 0 {
				chain += fmt.Sprintf(",fade=t=in:st=%s:d=%s:alpha=1,fade=t=out:st=%s:d=%s:alpha=1",
					seconds(layer.Start), seconds(layer.Fade), seconds(layer.End-layer.Fade), seconds(layer.Fade))
			}
			graph = append(graph, chain+"["+source+"]")
			x, y := position(layer.Anchor, layer.X, layer.Y, "w", "h")
			graph = append(graph, fmt.Sprintf("[%s][%s]overlay=x=%s:y=%s:enable='%s'[%s]",
				current, source, x, y, between(layer.Start, layer.End), label))
			nextInput++
		case composition.TextOverlay:
			x, y := position(layer.Anchor, layer.X, layer.Y, "text_w", "text_h")
			options := []string{
				"font=" + quoteFilterValue(composition.TextFontFamily),
				"textfile=" + quoteFilterValue(textFiles[idx]),
				fmt.Sprintf("fontsize=%d", layer.FontSize),
				"fontcolor=" + layer.Color,
				fmt.Sprintf("borderw=%d", layer.StrokeWidth),
				"bordercolor=" + layer.StrokeColor,
				fmt.Sprintf("line_spacing=%d", composition.TextLineSpacing),
				"x=" + x,
				"y=" + y,
				"enable='" + between(layer.Start, layer.End) + "'",
			}
			if layer.Fade > 0 {
				options = append(options, "alpha='"+fadeAlpha(layer.Start, layer.End, layer.Fade)+"'")
			}
			graph = append(graph, fmt.Sprintf("[%s]drawtext=%s[%s]", current, strings.Join(options, ":"), label))
		default:
			continue
		}
		current = label
	}
	graph = append(graph, fmt.Sprintf("[%s]format=%s[vout]", current, outputPixFormat))

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[vout]",
		"-map", "1:a",
		"-c:v", plan.Encoding.Codec,
	)
	if plan.Encoding.AutoQuality {
		tier := QualityFor(plan.Duration)
		args = append(args, "-preset", tier.Preset, "-crf", strconv.Itoa(tier.CRF))
	} else {
		args = append(args, "-b:v", plan.Encoding.Bitrate)
	}
	return append(args,
		"-pix_fmt", outputPixFormat,
		"-r", strconv.Itoa(canvas.FPS),
		"-c:a", plan.Encoding.AudioCodec,
		"-b:a", audioBitrate,
		"-t", total,
		"-movflags", "+faststart",
		"-f", "mp4",
		outputPath,
	)
}

func position(anchor composition.Anchor, x, y int, widthVar, heightVar string) (string, string) {
	if anchor == composition.AnchorCenter {
		return fmt.Sprintf("%d-%s/2", x, widthVar), fmt.Sprintf("%d-%s/2", y, heightVar)
	}
	return strconv.Itoa(x), strconv.Itoa(y)
}

func between(start, end float64) string {
	return fmt.Sprintf("between(t,%s,%s)", seconds(start), seconds(end))
}

func fadeAlpha(start, end, fade float64) string {
	s, e, f := seconds(start), seconds(end), seconds(fade)
	return fmt.Sprintf("if(lt(t,%s+%s),(t-%s)/%s,if(gt(t,%s-%s),(%s-t)/%s,1))", s, f, s, f, e, f, e, f)
}

// quoteFilterValue wraps value in single quotes for a filtergraph option.
func quoteFilterValue(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func seconds(value float64) string {
	return trimFloat(value)
}

func trimFloat(value float64) string {
	formatted := strconv.FormatFloat(value, 'f', 3, 64)
	formatted = strings.TrimRight(formatted, "0")
	return strings.TrimSuffix(formatted, ".")
}
