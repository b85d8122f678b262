package match

import (
	"reflect"
	"testing"

	"worklogd/internal/jira"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		verb     string
		types    []string
		baseName string
	}{
		{"Author TC ABC123", "Authoring", []string{"TC"}, "abc123"},
		{"review tp widget_x", "Review", []string{"TP"}, "widget_x"},
		{"Rework TC/TP login", "Authoring", []string{"TC", "TP"}, "login"},
		{"- Author 2 TCs payments", "Authoring", []string{"TC"}, "payments"},
		{"Author login", "Authoring", nil, "login"},
		{"nonsense line", "", nil, ""},
		{"", "", nil, ""},
	}

	for _, tt := range tests {
		got := ParseLine(tt.line)
		if got.Verb != tt.verb {
			t.Errorf("ParseLine(%q).Verb = %q, want %q", tt.line, got.Verb, tt.verb)
		}
		if !reflect.DeepEqual(got.Types, tt.types) {
			t.Errorf("ParseLine(%q).Types = %v, want %v", tt.line, got.Types, tt.types)
		}
		if got.BaseName != tt.baseName {
			t.Errorf("ParseLine(%q).BaseName = %q, want %q", tt.line, got.BaseName, tt.baseName)
		}
	}
}

func TestParseAndMatch_LiteralKeys(t *testing.T) {
	input := "Author TC ABC-123\nnonsense line\nReview TP XYZ-456"
	set := ParseAndMatch(input, nil)

	if set.Count != 2 {
		t.Fatalf("Count = %d, want 2", set.Count)
	}
	want := []string{"ABC-123", "XYZ-456"}
	if !reflect.DeepEqual(set.MatchedKeys, want) {
		t.Errorf("MatchedKeys = %v, want %v", set.MatchedKeys, want)
	}
}

func TestParseAndMatch_Dedup(t *testing.T) {
	input := "Author TC ABC-123\nRework TC ABC-123"
	set := ParseAndMatch(input, nil)

	if set.Count != 1 {
		t.Errorf("Count = %d, want 1 after dedup", set.Count)
	}
	if !reflect.DeepEqual(set.MatchedKeys, []string{"ABC-123"}) {
		t.Errorf("MatchedKeys = %v, want [ABC-123]", set.MatchedKeys)
	}
}

func TestParseAndMatch_SummaryResolution(t *testing.T) {
	issues := []jira.Issue{
		{Key: "PRJ-1", Summary: "Authoring TC login"},
		{Key: "PRJ-2", Summary: "Review TP login"},
		{Key: "PRJ-3", Summary: "Authoring TC payments"},
	}

	set := ParseAndMatch("Author TC login", issues)
	if !reflect.DeepEqual(set.MatchedKeys, []string{"PRJ-1"}) {
		t.Errorf("MatchedKeys = %v, want [PRJ-1]", set.MatchedKeys)
	}

	// Combined TC/TP indicator matches both task types.
	set = ParseAndMatch("Author TC/TP login", issues)
	if set.Count != 1 || set.MatchedKeys[0] != "PRJ-1" {
		t.Errorf("TC/TP MatchedKeys = %v, want [PRJ-1]", set.MatchedKeys)
	}

	set = ParseAndMatch("Review TP login", issues)
	if !reflect.DeepEqual(set.MatchedKeys, []string{"PRJ-2"}) {
		t.Errorf("MatchedKeys = %v, want [PRJ-2]", set.MatchedKeys)
	}
}

func TestParseAndMatch_FallbackSubstring(t *testing.T) {
	issues := []jira.Issue{
		{Key: "PRJ-9", Summary: "Quarterly maintenance window"},
	}

	set := ParseAndMatch("maintenance window", issues)
	if !reflect.DeepEqual(set.MatchedKeys, []string{"PRJ-9"}) {
		t.Errorf("MatchedKeys = %v, want [PRJ-9] via fallback", set.MatchedKeys)
	}
}

func TestParseAndMatch_NoMatches(t *testing.T) {
	set := ParseAndMatch("completely unrelated text", []jira.Issue{
		{Key: "PRJ-1", Summary: "Authoring TC login"},
	})
	if set.Count != 0 {
		t.Errorf("Count = %d, want 0", set.Count)
	}
	if len(set.MatchedKeys) != 0 {
		t.Errorf("MatchedKeys = %v, want empty", set.MatchedKeys)
	}
}

func TestParseAndMatch_EmptyInput(t *testing.T) {
	set := ParseAndMatch("", nil)
	if set.Count != 0 {
		t.Errorf("Count = %d, want 0 for empty input", set.Count)
	}
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a\nb", []string{"a", "b"}},
		{"a; b;c", []string{"a", "b", "c"}},
		{"- a\n- b", []string{"a", "b"}},
		{"\n\n  \n", nil},
		{"one task", []string{"one task"}},
	}

	for _, tt := range tests {
		got := SplitSegments(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitSegments(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMatch_OrderFollowsFirstAppearance(t *testing.T) {
	input := "Review TP XYZ-456\nAuthor TC ABC-123\nReview TP XYZ-456"
	set := ParseAndMatch(input, nil)

	want := []string{"XYZ-456", "ABC-123"}
	if !reflect.DeepEqual(set.MatchedKeys, want) {
		t.Errorf("MatchedKeys = %v, want %v (first-seen order)", set.MatchedKeys, want)
	}
}
