// Package deps reports whether the external tools a render needs are
// installed: ffmpeg and ffprobe on PATH, and the ffmpeg filters the encoder
// builds its graphs from.
package deps
