package llm

import (
	"encoding/json"
	"strings"

	"github.com/bundlescope/bundlescope/internal/models"
)

// parseAnalysis coerces an LLM response into an AnalysisResult. Models wrap
// JSON in markdown fences, add prose around the object, and leave trailing
// commas; all of that is repaired here. When no object can be recovered the
// raw text becomes the summary so the answer is not lost.
func parseAnalysis(raw string) *models.AnalysisResult {
	cleaned := stripTrailingCommas(extractJSON(raw))

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil || isEmpty(&result) {
		result = models.AnalysisResult{Summary: strings.TrimSpace(raw)}
	}

	result.Source = models.SourceAI
	result.Normalize()
	return &result
}

// extractJSON strips markdown fences and slices out the outermost object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = ""
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

// stripTrailingCommas removes commas that directly precede } or ], a common
// LLM mistake. Loops so nested occurrences collapse too.
func stripTrailingCommas(s string) string {
	for {
		changed := false
		var b strings.Builder
		b.Grow(len(s))

		for i := 0; i < len(s); i++ {
			if s[i] == ',' {
				j := i + 1
				for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
					j++
				}
				if j < len(s) && (s[j] == '}' || s[j] == ']') {
					changed = true
					continue
				}
			}
			b.WriteByte(s[i])
		}

		if !changed {
			return s
		}
		s = b.String()
	}
}

func isEmpty(r *models.AnalysisResult) bool {
	return r.Summary == "" && len(r.RootCauses) == 0 && len(r.Recommendations) == 0
}
