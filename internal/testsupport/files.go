package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// signatures start fixture files so that tools sniffing magic bytes see the
// format their extension claims.
var signatures = map[string][]byte{
	".wav": []byte("RIFF\x00\x00\x00\x00WAVEfmt "),
	".png": []byte("\x89PNG\r\n\x1a\n"),
	".mp4": []byte("\x00\x00\x00\x18ftypisom"),
}

// WriteFile creates path with exactly size bytes (at least one): the
// format signature for its extension, if known, padded with filler. Parent
// directories are created as needed.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	size = max(size, 1)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := bytes.Repeat([]byte{0x42}, int(size))
	copy(data, signatures[strings.ToLower(filepath.Ext(path))])
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
