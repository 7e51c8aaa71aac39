package composition

import (
	"reflect"
	"testing"
)

func TestPadCaptions(t *testing.T) {
	got := PadCaptions("野球", nil, 2)
	want := []string{"野球のコメント1", "野球のコメント2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PadCaptions = %q, want %q", got, want)
	}
	got = PadCaptions("t", []string{" ok ", ""}, 2)
	if got[0] != "ok" || got[1] != "tのコメント2" {
		t.Fatalf("unexpected padding %q", got)
	}
}

func TestNormalizeCaption(t *testing.T) {
	if got := NormalizeCaption("ＡＢＣ　１２３"); got != "ABC 123" {
		t.Fatalf("NFKC not applied: %q", got)
	}
	if got := NormalizeCaption("  one  \r\n\n two "); got != "one\ntwo" {
		t.Fatalf("unexpected whitespace handling: %q", got)
	}
}

func TestDisplayWidth(t *testing.T) {
	if got := DisplayWidth("abc"); got != 3 {
		t.Fatalf("latin width = %d", got)
	}
	if got := DisplayWidth("日本"); got != 4 {
		t.Fatalf("wide width = %d", got)
	}
}

func TestWrapCaption(t *testing.T) {
	lines := WrapCaption("これはとても長いコメントです", 10)
	for _, line := range lines {
		if DisplayWidth(line) > 10 {
			t.Fatalf("line %q exceeds 10 columns", line)
		}
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", lines)
	}

	lines = WrapCaption("the quick brown fox", 10)
	want := []string{"the quick", "brown fox"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("WrapCaption = %q, want %q", lines, want)
	}

	lines = WrapCaption("short\nsecond", 20)
	if !reflect.DeepEqual(lines, []string{"short", "second"}) {
		t.Fatalf("explicit breaks not kept: %q", lines)
	}
}

func TestGridColumns(t *testing.T) {
	if got := gridColumns(1920); got != 15 {
		t.Fatalf("gridColumns(1920) = %d", got)
	}
	if got := gridColumns(10); got != 2 {
		t.Fatalf("gridColumns floor = %d", got)
	}
}
