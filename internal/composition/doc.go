// Package composition turns a theme request into an immutable RenderPlan and
// hands it to an Encoder.
//
// Compose validates the request, allocates the timeline, resolves the
// background, lays out subtitle overlays and builds the plan. The plan is a
// tagged union of layers (audio, video, color, image, text) in draw order;
// the encoder consumes it once. ComposeClip covers the single-clip mode where
// one audio file drives the duration.
package composition
