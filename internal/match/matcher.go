// Package match parses free-text task descriptions (typed lists or Excel
// timesheet cells) into Jira issue keys.
package match

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"worklogd/internal/jira"
)

// Set is an ordered, deduplicated selection of matched issue keys.
type Set struct {
	MatchedKeys []string `json:"matched_keys"`
	Count       int      `json:"count"`
}

// ParsedLine holds the components recognized in one task description line.
type ParsedLine struct {
	Original string
	// Verb is the summary-form verb ("Authoring" or "Review"); empty when
	// the line did not match the grammar.
	Verb string
	// Types holds the task type indicators ("TC", "TP") when present.
	Types []string
	// BaseName is the trailing name token used to resolve an issue.
	BaseName string
}

var (
	verbRe = regexp.MustCompile(`\b(author|review|rework)\b`)
	// Grammar: verb, optional count, optional TC/TP type indicator, trailing
	// name token. Applied to the lowercased line.
	lineRe = regexp.MustCompile(`\b(?:author|review|rework)[^a-zA-Z0-9]*\d*\s*(tcs?/tps?|tps?/tcs?|tcs?|tps?)?\s*([a-zA-Z0-9_-]+)\s*$`)
	// keyRe recognizes a literal issue key used as the name token.
	keyRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*-\d+$`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// summaryVerbs maps line verbs to the wording used in issue summaries.
var summaryVerbs = map[string]string{
	"author": "Authoring",
	"rework": "Authoring",
	"review": "Review",
}

// ParseLine parses a single task description line such as "Author TC ABC123".
func ParseLine(line string) ParsedLine {
	parsed := ParsedLine{Original: line}
	cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "-"))
	lowered := strings.ToLower(cleaned)

	if m := verbRe.FindStringSubmatch(lowered); m != nil {
		parsed.Verb = summaryVerbs[m[1]]
	}

	m := lineRe.FindStringSubmatch(lowered)
	if m == nil {
		return parsed
	}

	indicator := m[1]
	parsed.BaseName = m[2]

	switch {
	case strings.Contains(indicator, "tc") && strings.Contains(indicator, "tp"):
		parsed.Types = []string{"TC", "TP"}
	case strings.Contains(indicator, "tc"):
		parsed.Types = []string{"TC"}
	case strings.Contains(indicator, "tp"):
		parsed.Types = []string{"TP"}
	}

	return parsed
}

// SplitSegments breaks raw input into candidate task lines. Excel cells may
// hold several tasks separated by line breaks or semicolons; both are
// treated as separators. Leading list dashes and blank segments are dropped.
func SplitSegments(text string) []string {
	var segments []string
	for _, line := range strings.Split(text, "\n") {
		for _, seg := range strings.Split(line, ";") {
			seg = strings.TrimSpace(strings.Trim(strings.TrimSpace(seg), "-"))
			if seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	return segments
}

// Match resolves parsed lines against the known issue universe. Output order
// is first appearance; repeated keys are deduplicated. Lines that resolve to
// nothing are skipped silently.
func Match(lines []ParsedLine, issues []jira.Issue) []string {
	matched := []string{}
	seen := make(map[string]bool)
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			matched = append(matched, key)
		}
	}

	for _, parsed := range lines {
		// A name token that is itself an issue key needs no summary lookup.
		if parsed.Verb != "" && keyRe.MatchString(parsed.BaseName) {
			add(strings.ToUpper(parsed.BaseName))
			log.Debug().Str("line", parsed.Original).Str("key", strings.ToUpper(parsed.BaseName)).Msg("Matched literal issue key")
			continue
		}

		if parsed.Verb == "" || parsed.BaseName == "" {
			// Fallback: whole-line substring match against summaries.
			for _, issue := range issues {
				if strings.Contains(strings.ToLower(issue.Summary), strings.ToLower(parsed.Original)) {
					add(issue.Key)
					log.Debug().Str("line", parsed.Original).Str("key", issue.Key).Msg("Matched task line (fallback)")
				}
			}
			continue
		}

		for _, issue := range issues {
			summary := spaceRe.ReplaceAllString(issue.Summary, " ")

			if !strings.Contains(summary, parsed.Verb) {
				continue
			}
			if !strings.Contains(strings.ToLower(summary), strings.ToLower(parsed.BaseName)) {
				continue
			}

			if len(parsed.Types) == 0 {
				add(issue.Key)
				log.Debug().Str("line", parsed.Original).Str("key", issue.Key).Msg("Matched task line")
				continue
			}

			for _, taskType := range parsed.Types {
				wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(taskType) + `\b`)
				if wordRe.MatchString(summary) {
					add(issue.Key)
					log.Debug().Str("line", parsed.Original).Str("key", issue.Key).Str("type", taskType).Msg("Matched task line")
					break
				}
			}
		}
	}

	return matched
}

// ParseAndMatch tokenizes raw text and resolves it to a matched task set.
func ParseAndMatch(text string, issues []jira.Issue) Set {
	segments := SplitSegments(text)
	lines := make([]ParsedLine, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, ParseLine(seg))
	}

	keys := Match(lines, issues)
	return Set{MatchedKeys: keys, Count: len(keys)}
}
