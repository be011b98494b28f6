package analyzer

import "github.com/bundlescope/bundlescope/internal/models"

// SignificantIssues reports whether the bundle shows problems worth an AI
// pass. Healthy bundles are answered by pattern analysis alone so no
// provider call is made for them.
func SignificantIssues(bundle *models.BundleContext) bool {
	if bundle == nil || bundle.Summary == nil {
		return false
	}

	ov := bundle.Summary.Overview
	return ov.HealthScore < 90 ||
		ov.FailingPods > 0 ||
		ov.CriticalAlerts > 0 ||
		len(bundle.Summary.UnhealthyDeployments) > 0
}
