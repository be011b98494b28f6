package analyzer

import (
	"fmt"
	"strings"

	"github.com/bundlescope/bundlescope/internal/models"
)

// PatternAnalyzer produces a rule-based analysis with no AI involvement.
// It is the fast path for healthy bundles and the fallback when no provider
// is reachable. Analyze never fails.
type PatternAnalyzer struct{}

func NewPatternAnalyzer() *PatternAnalyzer {
	return &PatternAnalyzer{}
}

func (a *PatternAnalyzer) Analyze(bundle *models.BundleContext) *models.AnalysisResult {
	result := &models.AnalysisResult{Source: models.SourcePattern}
	result.Normalize()

	if bundle == nil || bundle.Summary == nil {
		result.Summary = "No bundle data available for pattern analysis."
		return result
	}

	ov := bundle.Summary.Overview
	pods := bundle.Summary.FailingPods

	if crashLoop := matchPods(pods, "CrashLoopBackOff"); len(crashLoop) > 0 {
		result.RootCauses = append(result.RootCauses, models.RootCause{
			Issue:       fmt.Sprintf("%d pods in CrashLoopBackOff", len(crashLoop)),
			Likelihood:  "high",
			Explanation: "Containers exit shortly after start; kubelet is backing off between restarts.",
		})
		result.Recommendations = append(result.Recommendations, models.Recommendation{
			Priority: "critical",
			Action:   "Inspect logs of crash-looping pods and fix the container startup failure",
		})
		for i := range crashLoop {
			result.AffectedComponents = append(result.AffectedComponents, crashLoop[i].FullName())
		}
	}

	if oom := matchPods(pods, "OOMKilled"); len(oom) > 0 {
		result.RootCauses = append(result.RootCauses, models.RootCause{
			Issue:       fmt.Sprintf("%d pods OOM-killed", len(oom)),
			Likelihood:  "high",
			Explanation: "Containers exceeded their memory limits and were killed by the kernel.",
		})
		result.Recommendations = append(result.Recommendations, models.Recommendation{
			Priority: "critical",
			Action:   "Raise memory limits or fix the memory leak in OOM-killed workloads",
		})
	}

	if pull := matchPods(pods, "ImagePullBackOff", "ErrImagePull"); len(pull) > 0 {
		result.RootCauses = append(result.RootCauses, models.RootCause{
			Issue:       fmt.Sprintf("%d pods unable to pull images", len(pull)),
			Likelihood:  "high",
			Explanation: "Image references may be wrong or the registry is rejecting pulls.",
		})
		result.Recommendations = append(result.Recommendations, models.Recommendation{
			Priority: "high",
			Action:   "Verify image references and registry credentials",
		})
	}

	if hasSchedulingPressure(bundle.WarningEvents()) {
		result.RootCauses = append(result.RootCauses, models.RootCause{
			Issue:       "Insufficient cluster resources",
			Likelihood:  "high",
			Explanation: "The scheduler cannot place pods because nodes lack cpu or memory.",
		})
		result.Recommendations = append(result.Recommendations, models.Recommendation{
			Priority: "high",
			Action:   "Add nodes or lower resource requests so pending pods can schedule",
		})
	}

	result.Summary = buildSummary(ov, result.RootCauses)
	return result
}

// matchPods returns failing pods whose reason or status contains any of the
// given markers.
func matchPods(pods []models.FailingPod, markers ...string) []models.FailingPod {
	var matched []models.FailingPod
	for i := range pods {
		for _, marker := range markers {
			if strings.Contains(pods[i].Reason, marker) || strings.Contains(pods[i].Status, marker) {
				matched = append(matched, pods[i])
				break
			}
		}
	}
	return matched
}

func hasSchedulingPressure(events []models.BundleEvent) bool {
	for _, ev := range events {
		if ev.Reason != "FailedScheduling" {
			continue
		}
		if strings.Contains(ev.Message, "Insufficient") ||
			strings.Contains(ev.Message, "cpu") ||
			strings.Contains(ev.Message, "memory") {
			return true
		}
	}
	return false
}

func buildSummary(ov models.BundleOverview, causes []models.RootCause) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cluster health score is %d/100. ", ov.HealthScore)
	if ov.FailingPods > 0 {
		fmt.Fprintf(&b, "%d pods are failing. ", ov.FailingPods)
	}
	if ov.CriticalAlerts > 0 {
		fmt.Fprintf(&b, "%d critical alerts are firing. ", ov.CriticalAlerts)
	}

	if len(causes) > 0 {
		issues := make([]string, len(causes))
		for i, c := range causes {
			issues[i] = c.Issue
		}
		fmt.Fprintf(&b, "Primary issues: %s.", strings.Join(issues, ", "))
	} else {
		b.WriteString("No critical issues detected from pattern analysis.")
	}

	return b.String()
}
