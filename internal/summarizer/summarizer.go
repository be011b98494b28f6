package summarizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bundlescope/bundlescope/internal/models"
)

const (
	maxNamespaces        = 5
	maxPodExamples       = 2
	maxDeployments       = 5
	maxCriticalAlerts    = 3
	maxEventGroups       = 5
	maxPendingPVCs       = 5
	maxAlertMessageChars = 100
	maxEventExampleChars = 80
)

// Build renders a bounded digest of the bundle sized for an LLM prompt.
// Identical contexts produce byte-identical output; no clock, no randomness.
func Build(bundle *models.BundleContext) string {
	var b strings.Builder
	b.WriteString("# Cluster Snapshot\n")

	if bundle == nil || bundle.Summary == nil {
		b.WriteString("\nNo health summary available.\n")
		return b.String()
	}

	writeHeader(&b, bundle.Summary.Overview)
	writeFailingPods(&b, bundle.Summary.FailingPods)
	writeUnhealthyDeployments(&b, bundle.Summary.UnhealthyDeployments)
	writeAlerts(&b, bundle.Alerts)
	writeWarningEvents(&b, bundle.Events)
	writePendingPVCs(&b, bundle.Summary.PendingPVCs)

	return b.String()
}

func writeHeader(b *strings.Builder, ov models.BundleOverview) {
	fmt.Fprintf(b, "\nHealth score: %d/100\n", ov.HealthScore)

	if len(ov.Namespaces) > 0 {
		total := ov.TotalNamespaces
		if total == 0 {
			total = len(ov.Namespaces)
		}
		shown := ov.Namespaces
		suffix := ""
		if len(shown) > maxNamespaces {
			shown = shown[:maxNamespaces]
			suffix = " ..."
		}
		fmt.Fprintf(b, "Namespaces (%d): %s%s\n", total, strings.Join(shown, ", "), suffix)
	}

	fmt.Fprintf(b, "Pods: %d total, %d failing, %d pending\n",
		ov.TotalPods, ov.FailingPods, ov.PendingPods)
}

func writeFailingPods(b *strings.Builder, pods []models.FailingPod) {
	if len(pods) == 0 {
		return
	}

	type group struct {
		reason   string
		count    int
		examples []string
	}
	var order []*group
	index := make(map[string]*group)

	for i := range pods {
		p := &pods[i]
		reason := p.Reason
		if reason == "" {
			reason = p.Status
		}
		if reason == "" {
			reason = "Unknown"
		}
		g, ok := index[reason]
		if !ok {
			g = &group{reason: reason}
			index[reason] = g
			order = append(order, g)
		}
		g.count++
		if len(g.examples) < maxPodExamples {
			g.examples = append(g.examples, p.FullName())
		}
	}

	b.WriteString("\n## Failing Pods\n")
	for _, g := range order {
		fmt.Fprintf(b, "- %s: %d pods (e.g., %s)\n",
			g.reason, g.count, strings.Join(g.examples, ", "))
	}
}

func writeUnhealthyDeployments(b *strings.Builder, deps []models.UnhealthyDeployment) {
	if len(deps) == 0 {
		return
	}

	b.WriteString("\n## Unhealthy Deployments\n")
	shown := deps
	if len(shown) > maxDeployments {
		shown = shown[:maxDeployments]
	}
	for _, d := range shown {
		fmt.Fprintf(b, "- %s/%s: %d/%d ready\n",
			d.Namespace, d.Name, d.ReadyReplicas, d.DesiredReplicas)
	}
	if rest := len(deps) - len(shown); rest > 0 {
		fmt.Fprintf(b, "... and %d more\n", rest)
	}
}

func writeAlerts(b *strings.Builder, alerts *models.BundleAlerts) {
	if alerts == nil || (len(alerts.Critical) == 0 && len(alerts.Warning) == 0) {
		return
	}

	b.WriteString("\n## Alerts\n")
	fmt.Fprintf(b, "%d critical, %d warning\n", len(alerts.Critical), len(alerts.Warning))

	shown := alerts.Critical
	if len(shown) > maxCriticalAlerts {
		shown = shown[:maxCriticalAlerts]
	}
	for _, a := range shown {
		scope := a.Namespace
		if scope == "" {
			scope = "cluster"
		}
		msg := "No message"
		if a.Message != "" {
			msg = truncate(a.Message, maxAlertMessageChars)
		}
		fmt.Fprintf(b, "- [%s] %s: %s\n", scope, a.Name, msg)
	}
}

func writeWarningEvents(b *strings.Builder, events []models.BundleEvent) {
	type group struct {
		reason      string
		records     int
		occurrences int
		example     string
	}
	var order []*group
	index := make(map[string]*group)

	for _, ev := range events {
		if ev.Type != "Warning" {
			continue
		}
		reason := ev.Reason
		if reason == "" {
			reason = "Unknown"
		}
		g, ok := index[reason]
		if !ok {
			g = &group{reason: reason}
			index[reason] = g
			order = append(order, g)
		}
		g.records++
		// A record with no count still happened once.
		if ev.Count > 0 {
			g.occurrences += int(ev.Count)
		} else {
			g.occurrences++
		}
		if g.example == "" && ev.Message != "" {
			g.example = truncate(ev.Message, maxEventExampleChars)
		}
	}

	if len(order) == 0 {
		return
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].occurrences > order[j].occurrences
	})
	if len(order) > maxEventGroups {
		order = order[:maxEventGroups]
	}

	b.WriteString("\n## Warning Events (top reasons)\n")
	for _, g := range order {
		fmt.Fprintf(b, "- %s: %d events (%d occurrences)\n", g.reason, g.records, g.occurrences)
		if g.example != "" {
			fmt.Fprintf(b, "  e.g., %s\n", g.example)
		}
	}
}

func writePendingPVCs(b *strings.Builder, pvcs []string) {
	if len(pvcs) == 0 {
		return
	}

	b.WriteString("\n## Pending PVCs\n")
	shown := pvcs
	if len(shown) > maxPendingPVCs {
		shown = shown[:maxPendingPVCs]
	}
	b.WriteString(strings.Join(shown, ", "))
	b.WriteString("\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
