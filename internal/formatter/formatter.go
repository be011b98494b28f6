package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/bundlescope/bundlescope/internal/models"
)

const (
	divider      = "═══════════════════════════════════════════════════════════════════════════════"
	sectionBreak = "───────────────────────────────────────────────────────────────────────────────"
)

type Formatter struct{}

func NewFormatter(useColors bool) *Formatter {
	if !useColors {
		DisableColors()
	}
	return &Formatter{}
}

func (f *Formatter) FormatAnalysis(result *models.StoredAnalysis) string {
	var sb strings.Builder

	// Header
	sb.WriteString("\n")
	sb.WriteString(Colorize(Cyan, divider))
	sb.WriteString("\n")
	sb.WriteString(Title("  🔍 BUNDLESCOPE CLUSTER ANALYSIS"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Cyan, divider))
	sb.WriteString("\n\n")

	if result.Analysis != nil {
		f.writeSummary(&sb, result.Analysis)
		f.writeRootCauses(&sb, result.Analysis.RootCauses)
		f.writeRecommendations(&sb, result.Analysis.Recommendations)
		f.writeAffectedComponents(&sb, result.Analysis.AffectedComponents)
	}

	f.writeProvenance(&sb, result)

	sb.WriteString(Colorize(Cyan, divider))
	sb.WriteString("\n")

	return sb.String()
}

// RenderDigest wraps the raw Markdown digest with a colored header.
func (f *Formatter) RenderDigest(digest string) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(Title("  📦 BUNDLE DIGEST"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")
	sb.WriteString(digest)
	if !strings.HasSuffix(digest, "\n") {
		sb.WriteString("\n")
	}

	return sb.String()
}

func (f *Formatter) writeSummary(sb *strings.Builder, analysis *models.AnalysisResult) {
	sb.WriteString(SectionHeader("📋 SUMMARY"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")
	sb.WriteString(f.indentText(analysis.Summary, "  "))
	sb.WriteString("\n\n")
}

func (f *Formatter) writeRootCauses(sb *strings.Builder, causes []models.RootCause) {
	if len(causes) == 0 {
		return
	}

	sb.WriteString(SectionHeader("🎯 ROOT CAUSES"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	for i, cause := range causes {
		sb.WriteString(fmt.Sprintf("  %s. %s %s\n",
			Colorize(Yellow, fmt.Sprintf("%d", i+1)),
			LikelihoodBadge(cause.Likelihood),
			BoldColorize(White, cause.Issue),
		))

		if cause.Explanation != "" {
			sb.WriteString(fmt.Sprintf("     %s\n", Muted(cause.Explanation)))
		}
		sb.WriteString("\n")
	}
}

func (f *Formatter) writeRecommendations(sb *strings.Builder, recommendations []models.Recommendation) {
	if len(recommendations) == 0 {
		return
	}

	sb.WriteString(SectionHeader("💡 RECOMMENDATIONS"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	for i, rec := range recommendations {
		sb.WriteString(fmt.Sprintf("  %s. %s %s\n",
			Colorize(Yellow, fmt.Sprintf("%d", i+1)),
			PriorityBadge(rec.Priority),
			BoldColorize(White, rec.Action),
		))

		if rec.Rationale != "" {
			sb.WriteString(fmt.Sprintf("     %s\n", Muted(rec.Rationale)))
		}
		sb.WriteString("\n")
	}
}

func (f *Formatter) writeAffectedComponents(sb *strings.Builder, components []string) {
	if len(components) == 0 {
		return
	}

	sb.WriteString(SectionHeader("🧩 AFFECTED COMPONENTS"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	for _, component := range components {
		sb.WriteString(fmt.Sprintf("  %s %s\n", Colorize(Gray, "-"), Info(component)))
	}
	sb.WriteString("\n")
}

func (f *Formatter) writeProvenance(sb *strings.Builder, result *models.StoredAnalysis) {
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	source := "unknown"
	if result.Analysis != nil && result.Analysis.Source != "" {
		source = result.Analysis.Source
	}

	line := fmt.Sprintf("  Source: %s", source)
	if result.Analysis != nil && result.Analysis.Model != "" {
		line += fmt.Sprintf(" (%s)", result.Analysis.Model)
	}
	if !result.SavedAt.IsZero() {
		line += fmt.Sprintf("  •  Saved: %s", result.SavedAt.Format(time.RFC3339))
	}
	sb.WriteString(Muted(line))
	sb.WriteString("\n")

	if result.Fingerprint != "" {
		sb.WriteString(Muted(fmt.Sprintf("  Fingerprint: %s", result.Fingerprint)))
		sb.WriteString("\n")
	}
}

func (f *Formatter) indentText(text string, indent string) string {
	lines := strings.Split(text, "\n")
	var result strings.Builder

	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			result.WriteString(indent)
			result.WriteString(line)
		}
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}

	return result.String()
}
