// Package encoding renders a composition.RenderPlan with ffmpeg.
//
// Encoding runs in two passes inside a private temp directory: the audio
// layers are mixed into one track of exactly the plan duration, then the
// background, overlays and mixed audio are muxed into a hidden partial file
// next to the output. The partial file is renamed into place only after it
// exists and is non-empty. Temp files and partial output are removed on every
// exit path; teardown failures are logged, never returned.
package encoding
