package composition

import "themereel/internal/background"

// LayerKind tags the Layer union.
type LayerKind string

const (
	LayerAudio LayerKind = "audio"
	LayerVideo LayerKind = "video"
	LayerColor LayerKind = "color"
	LayerImage LayerKind = "image"
	LayerText  LayerKind = "text"
)

// Layer is one element of a RenderPlan. The set of implementations is
// closed: AudioLayer, VideoLayer, ColorLayer, ImageOverlay, TextOverlay.
type Layer interface {
	Kind() LayerKind
	// Span reports the active interval on the output timeline.
	Span() (start, end float64)
	sealed()
}

// Text overlay style.
const (
	TextFontSize    = 48
	TextColor       = "white"
	TextStrokeColor = "black"
	TextStrokeWidth = 2
	TextLineSpacing = 8
	TextFontFamily  = "Noto Sans CJK JP"
)

// Anchor says which point of an overlay X/Y refers to.
type Anchor string

const (
	AnchorTopLeft Anchor = "top_left"
	AnchorCenter  Anchor = "center"
)

// AudioLayer places Duration seconds of Path at Start, scaled by Volume.
// Loops > 1 repeats the source before trimming.
type AudioLayer struct {
	Path     string
	Start    float64
	Duration float64
	Volume   float64
	Loops    int
}

func (AudioLayer) Kind() LayerKind {
	return LayerAudio
}

func (l AudioLayer) Span() (float64, float64) {
	return l.Start, l.Start + l.Duration
}

func (AudioLayer) sealed() {}

// VideoLayer is a background video looped Loops times and cut to Duration.
// Freeze holds the last frame instead of looping.
type VideoLayer struct {
	Path     string
	Duration float64
	Loops    int
	Freeze   bool
	Width    int
	Height   int
}

func (VideoLayer) Kind() LayerKind {
	return LayerVideo
}

func (l VideoLayer) Span() (float64, float64) {
	return 0, l.Duration
}

func (VideoLayer) sealed() {}

// ColorLayer is a solid full-canvas clip.
type ColorLayer struct {
	Color    background.RGB
	Width    int
	Height   int
	Duration float64
}

func (ColorLayer) Kind() LayerKind {
	return LayerColor
}

func (l ColorLayer) Span() (float64, float64) {
	return 0, l.Duration
}

func (ColorLayer) sealed() {}

// ImageOverlay shows a still image between Start and End with Fade seconds
// of alpha fade at each edge.
type ImageOverlay struct {
	Path   string
	X      int
	Y      int
	Anchor Anchor
	Start  float64
	End    float64
	Fade   float64
}

func (ImageOverlay) Kind() LayerKind {
	return LayerImage
}

func (l ImageOverlay) Span() (float64, float64) {
	return l.Start, l.End
}

func (ImageOverlay) sealed() {}

// TextOverlay draws Lines between Start and End.
type TextOverlay struct {
	Lines       []string
	X           int
	Y           int
	Anchor      Anchor
	Start       float64
	End         float64
	Fade        float64
	FontSize    int
	Color       string
	StrokeColor string
	StrokeWidth int
}

func (TextOverlay) Kind() LayerKind {
	return LayerText
}

func (l TextOverlay) Span() (float64, float64) {
	return l.Start, l.End
}

func (TextOverlay) sealed() {}

func newTextOverlay(lines []string, x, y int, anchor Anchor, start, end, fade float64) TextOverlay {
	return TextOverlay{
		Lines:       append([]string(nil), lines...),
		X:           x,
		Y:           y,
		Anchor:      anchor,
		Start:       start,
		End:         end,
		Fade:        fade,
		FontSize:    TextFontSize,
		Color:       TextColor,
		StrokeColor: TextStrokeColor,
		StrokeWidth: TextStrokeWidth,
	}
}

// textBlockSize estimates the pixel size of a wrapped text block.
func textBlockSize(lines []string, fontSize int) (int, int) {
	widest := 0
	for _, line := range lines {
		widest = max(widest, DisplayWidth(line))
	}
	w := widest * fontSize / 2
	h := len(lines)*fontSize + max(len(lines)-1, 0)*TextLineSpacing
	return w, h
}
