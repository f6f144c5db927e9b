package splitter

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitSentenceAndClauseBoundaries(t *testing.T) {
	segs := Split("Hello world. This is a test, truly.", 15)

	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segs), segs)
	}

	want := []string{
		"Hello world. .....",
		"This is a test, ...",
		"truly. .....",
	}
	for i, seg := range segs {
		if seg.Index != i {
			t.Errorf("segment %d has index %d", i, seg.Index)
		}
		if seg.Text != want[i] {
			t.Errorf("segment %d = %q, want %q", i, seg.Text, want[i])
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if segs := Split(text, 100); segs != nil {
			t.Errorf("Split(%q) = %+v, want nil", text, segs)
		}
	}
}

func TestSplitShortTextSingleSegment(t *testing.T) {
	segs := Split("Just one sentence here.", 2000)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Index != 0 {
		t.Errorf("index = %d, want 0", segs[0].Index)
	}
}

func TestSplitPacksSentencesUpToLimit(t *testing.T) {
	// Two short sentences fit together in one segment under the limit.
	segs := Split("One two. Three four.", 30)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d: %+v", len(segs), segs)
	}
}

func TestSplitHardSplitOversizedClause(t *testing.T) {
	// No punctuation at all, longer than the limit.
	text := strings.Repeat("a", 25)
	segs := Split(text, 10)

	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	for _, seg := range segs {
		if n := utf8.RuneCountInString(StripPauses(seg.Text)); n > 10 {
			t.Errorf("segment %d exceeds limit: %d runes", seg.Index, n)
		}
	}
	if got := strings.Join([]string{segs[0].Text, segs[1].Text, segs[2].Text}, ""); got != text {
		t.Errorf("reassembled = %q, want %q", got, text)
	}
}

func TestSplitRespectsRuneLimitNotByteLimit(t *testing.T) {
	// Multi-byte runes: 8 runes, 24 bytes. A limit of 10 runes must keep
	// them in one segment.
	text := strings.Repeat("世", 8)
	segs := Split(text, 10)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := "First sentence. Second one, with a clause; and more. Third!"
	a := Split(text, 25)
	b := Split(text, 25)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated splits differ:\n%+v\n%+v", a, b)
	}
}

func TestStripPausesRecoversOriginal(t *testing.T) {
	original := "Wait, what? Yes: it works. Good; done!"
	segs := Split(original, 2000)

	var recovered []string
	for _, seg := range segs {
		recovered = append(recovered, StripPauses(seg.Text))
	}
	if got := strings.Join(recovered, " "); got != original {
		t.Errorf("recovered = %q, want %q", got, original)
	}
}

func TestMarkPausesLeavesMidWordPunctuation(t *testing.T) {
	segs := Split("Pi is 3.14 roughly, okay.", 2000)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if strings.Contains(segs[0].Text, "3. ....14") {
		t.Errorf("decimal point was marked: %q", segs[0].Text)
	}
	if !strings.Contains(segs[0].Text, "roughly, ...") {
		t.Errorf("comma not marked: %q", segs[0].Text)
	}
	if !strings.HasSuffix(segs[0].Text, "okay. .....") {
		t.Errorf("sentence end not marked: %q", segs[0].Text)
	}
}

func TestSplitZeroMaxCharsUsesDefault(t *testing.T) {
	segs := Split("A short sentence.", 0)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
}
