package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/models"
)

// BundleClient collects a BundleContext from the backend that indexes
// support bundles on disk. The health summary is the required section;
// events and alerts degrade to absent on failure.
type BundleClient struct {
	baseURL    string
	bundlePath string
	client     *http.Client
	logger     *zap.Logger
}

func NewBundleClient(cfg *config.Config, bundlePath string, logger *zap.Logger) *BundleClient {
	timeout := cfg.Backend.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &BundleClient{
		baseURL:    strings.TrimRight(cfg.Backend.URL, "/"),
		bundlePath: bundlePath,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (b *BundleClient) Path() string {
	return b.bundlePath
}

func (b *BundleClient) Collect(ctx context.Context) (*models.BundleContext, error) {
	bundle := &models.BundleContext{
		Path:        b.bundlePath,
		CollectedAt: time.Now(),
	}

	var summary models.BundleHealthSummary
	if err := b.get(ctx, "/api/v1/bundle/summary", &summary); err != nil {
		return nil, fmt.Errorf("failed to fetch bundle summary: %w", err)
	}
	bundle.Summary = &summary

	var events []models.BundleEvent
	if err := b.get(ctx, "/api/v1/bundle/events", &events); err != nil {
		b.logger.Warn("failed to fetch bundle events", zap.Error(err))
	} else {
		bundle.Events = events
	}

	var alerts models.BundleAlerts
	if err := b.get(ctx, "/api/v1/bundle/alerts", &alerts); err != nil {
		b.logger.Warn("failed to fetch bundle alerts", zap.Error(err))
	} else {
		bundle.Alerts = &alerts
	}

	return bundle, nil
}

func (b *BundleClient) get(ctx context.Context, path string, out any) error {
	u := fmt.Sprintf("%s%s?path=%s", b.baseURL, path, url.QueryEscape(b.bundlePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
