// Package background resolves the visual layer behind a theme video.
//
// A background is either a video file (explicit or picked at random from an
// asset directory) looped or truncated to the requested duration, or a solid
// color clip. Resolution never fails: every probe or scan error is logged and
// demoted to the color fallback.
package background
