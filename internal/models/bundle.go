package models

import (
	"fmt"
	"time"
)

type BundleOverview struct {
	HealthScore     int      `json:"health_score"`
	TotalPods       int      `json:"total_pods"`
	FailingPods     int      `json:"failing_pods"`
	PendingPods     int      `json:"pending_pods"`
	TotalNamespaces int      `json:"total_namespaces"`
	Namespaces      []string `json:"namespaces"`
	CriticalAlerts  int      `json:"critical_alerts"`
	WarningAlerts   int      `json:"warning_alerts"`
	WarningEvents   int      `json:"warning_events"`
}

type FailingPod struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	Restarts  int32  `json:"restarts"`
}

func (p *FailingPod) FullName() string {
	return fmt.Sprintf("%s/%s", p.Namespace, p.Name)
}

type UnhealthyDeployment struct {
	Namespace       string `json:"namespace"`
	Name            string `json:"name"`
	ReadyReplicas   int32  `json:"ready_replicas"`
	DesiredReplicas int32  `json:"desired_replicas"`
}

type BundleHealthSummary struct {
	Overview             BundleOverview        `json:"overview"`
	FailingPods          []FailingPod          `json:"failing_pods"`
	UnhealthyDeployments []UnhealthyDeployment `json:"unhealthy_deployments"`
	PendingPVCs          []string              `json:"pending_pvcs"`
}

type BundleEvent struct {
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	Namespace string    `json:"namespace"`
	Object    string    `json:"object"`
	Count     int32     `json:"count"`
	LastSeen  time.Time `json:"last_seen"`
}

type BundleAlert struct {
	Name      string `json:"name"`
	Severity  string `json:"severity"`
	Namespace string `json:"namespace,omitempty"`
	Message   string `json:"message"`
}

type BundleAlerts struct {
	Critical []BundleAlert `json:"critical"`
	Warning  []BundleAlert `json:"warning"`
}

func (a *BundleAlerts) CriticalCount() int {
	if a == nil {
		return 0
	}
	return len(a.Critical)
}

func (a *BundleAlerts) WarningCount() int {
	if a == nil {
		return 0
	}
	return len(a.Warning)
}

type BundleContext struct {
	Path        string               `json:"path"`
	CollectedAt time.Time            `json:"collected_at"`
	Summary     *BundleHealthSummary `json:"summary,omitempty"`
	Events      []BundleEvent        `json:"events,omitempty"`
	Alerts      *BundleAlerts        `json:"alerts,omitempty"`
}

// Overview returns the overview counters, or zero values when no health
// summary was collected.
func (c *BundleContext) Overview() BundleOverview {
	if c == nil || c.Summary == nil {
		return BundleOverview{}
	}
	return c.Summary.Overview
}

func (c *BundleContext) WarningEvents() []BundleEvent {
	if c == nil {
		return nil
	}
	out := make([]BundleEvent, 0, len(c.Events))
	for _, ev := range c.Events {
		if ev.Type == "Warning" {
			out = append(out, ev)
		}
	}
	return out
}
