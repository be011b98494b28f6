package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/models"
)

type AlertManagerCollector struct {
	baseURL string
	client  *http.Client
}

func NewAlertManagerCollector(cfg *config.Config) *AlertManagerCollector {
	return &AlertManagerCollector{
		baseURL: strings.TrimRight(cfg.AlertManager.URL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// amAlert is the Alertmanager v2 wire shape, reduced to what we read.
type amAlert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	Status      struct {
		State string `json:"state"`
	} `json:"status"`
}

// GetBundleAlerts fetches active alerts and partitions them by severity:
// critical on one side, everything else as warnings.
func (a *AlertManagerCollector) GetBundleAlerts(ctx context.Context) (*models.BundleAlerts, error) {
	url := fmt.Sprintf("%s/api/v2/alerts", a.baseURL)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alertmanager returned status %d", resp.StatusCode)
	}

	var raw []amAlert
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}

	alerts := &models.BundleAlerts{}
	for _, al := range raw {
		if al.Status.State == "suppressed" {
			continue
		}

		alert := models.BundleAlert{
			Name:      al.Labels["alertname"],
			Severity:  al.Labels["severity"],
			Namespace: al.Labels["namespace"],
			Message:   al.Annotations["summary"],
		}
		if alert.Name == "" {
			alert.Name = "unknown"
		}
		if alert.Message == "" {
			alert.Message = al.Annotations["description"]
		}

		if alert.Severity == "critical" {
			alerts.Critical = append(alerts.Critical, alert)
		} else {
			alerts.Warning = append(alerts.Warning, alert)
		}
	}

	return alerts, nil
}
