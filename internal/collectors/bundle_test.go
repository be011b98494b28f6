package collectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/models"
)

func backendConfig(url string) *config.Config {
	cfg := &config.Config{}
	cfg.Backend.URL = url
	return cfg
}

func TestBundleClientCollect(t *testing.T) {
	summary := models.BundleHealthSummary{
		Overview: models.BundleOverview{HealthScore: 64, TotalPods: 30, FailingPods: 2},
		FailingPods: []models.FailingPod{
			{Namespace: "db", Name: "postgres-0", Reason: "CrashLoopBackOff"},
		},
	}
	events := []models.BundleEvent{
		{Type: "Warning", Reason: "BackOff", Message: "restarting", Count: 4},
	}
	alerts := models.BundleAlerts{
		Critical: []models.BundleAlert{{Name: "KubePodCrashLooping", Severity: "critical"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bundles/prod", r.URL.Query().Get("path"))
		switch r.URL.Path {
		case "/api/v1/bundle/summary":
			json.NewEncoder(w).Encode(summary)
		case "/api/v1/bundle/events":
			json.NewEncoder(w).Encode(events)
		case "/api/v1/bundle/alerts":
			json.NewEncoder(w).Encode(alerts)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewBundleClient(backendConfig(srv.URL), "/bundles/prod", zap.NewNop())
	assert.Equal(t, "/bundles/prod", client.Path())

	bundle, err := client.Collect(context.Background())
	require.NoError(t, err)

	require.NotNil(t, bundle.Summary)
	assert.Equal(t, 64, bundle.Summary.Overview.HealthScore)
	require.Len(t, bundle.Events, 1)
	require.NotNil(t, bundle.Alerts)
	assert.Equal(t, 1, bundle.Alerts.CriticalCount())
	assert.Equal(t, "/bundles/prod", bundle.Path)
	assert.False(t, bundle.CollectedAt.IsZero())
}

func TestBundleClientDegradesOptionalSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/bundle/summary":
			json.NewEncoder(w).Encode(models.BundleHealthSummary{
				Overview: models.BundleOverview{HealthScore: 90},
			})
		default:
			http.Error(w, "index not built", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	bundle, err := NewBundleClient(backendConfig(srv.URL), "/bundles/partial", zap.NewNop()).Collect(context.Background())
	require.NoError(t, err, "events and alerts are optional sections")

	require.NotNil(t, bundle.Summary)
	assert.Nil(t, bundle.Events)
	assert.Nil(t, bundle.Alerts)
}

func TestBundleClientSummaryFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such bundle", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewBundleClient(backendConfig(srv.URL), "/bundles/missing", zap.NewNop()).Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")
}
