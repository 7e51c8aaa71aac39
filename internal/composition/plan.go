package composition

import "time"

// Canvas is the output frame geometry.
type Canvas struct {
	Width  int
	Height int
	FPS    int
}

// EncodingSettings carry codec choices through to the encoder.
type EncodingSettings struct {
	Codec       string
	Bitrate     string
	AudioCodec  string
	AutoQuality bool
}

// RenderPlan is the immutable description of one output file. Layers are
// held privately and copied on access.
type RenderPlan struct {
	Theme      string
	OutputPath string
	Canvas     Canvas
	Duration   float64
	Encoding   EncodingSettings
	layers     []Layer
}

// NewRenderPlan copies layers into a new plan.
func NewRenderPlan(theme, outputPath string, canvas Canvas, duration float64, encoding EncodingSettings, layers []Layer) RenderPlan {
	return RenderPlan{
		Theme:      theme,
		OutputPath: outputPath,
		Canvas:     canvas,
		Duration:   duration,
		Encoding:   encoding,
		layers:     cloneLayers(layers),
	}
}

func cloneLayers(layers []Layer) []Layer {
	out := make([]Layer, len(layers))
	for i, layer := range layers {
		if text, ok := layer.(TextOverlay); ok {
			text.Lines = append([]string(nil), text.Lines...)
			layer = text
		}
		out[i] = layer
	}
	return out
}

// Layers returns all layers in draw order.
func (p RenderPlan) Layers() []Layer {
	return cloneLayers(p.layers)
}

// Background returns the first video or color layer.
func (p RenderPlan) Background() (Layer, bool) {
	for _, layer := range p.layers {
		switch layer.(type) {
		case VideoLayer, ColorLayer:
			return layer, true
		}
	}
	return nil, false
}

// Overlays returns image and text layers in draw order.
func (p RenderPlan) Overlays() []Layer {
	var out []Layer
	for _, layer := range p.layers {
		switch layer.Kind() {
		case LayerImage, LayerText:
			out = append(out, layer)
		}
	}
	return cloneLayers(out)
}

// AudioLayers returns the audio layers in order.
func (p RenderPlan) AudioLayers() []AudioLayer {
	var out []AudioLayer
	for _, layer := range p.layers {
		if audio, ok := layer.(AudioLayer); ok {
			out = append(out, audio)
		}
	}
	return out
}

// EncodeResult reports a finished encode.
type EncodeResult struct {
	OutputPath string
	Size       int64
	Elapsed    time.Duration
}
