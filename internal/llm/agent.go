package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/metrics"
	"github.com/bundlescope/bundlescope/internal/models"
)

const (
	defaultAgentTimeout  = 120 * time.Second
	defaultHealthTimeout = 3 * time.Second
)

// AgentClient talks to the local agent server that fronts the actual model.
// Analysis calls can run for minutes; the health probe uses its own
// short-timeout client so availability checks stay snappy.
type AgentClient struct {
	baseURL string
	client  *http.Client
	probe   *http.Client
	logger  *zap.Logger
}

func NewAgentClient(cfg *config.Config, logger *zap.Logger) *AgentClient {
	timeout := cfg.Agent.Timeout
	if timeout == 0 {
		timeout = defaultAgentTimeout
	}
	healthTimeout := cfg.Agent.HealthTimeout
	if healthTimeout == 0 {
		healthTimeout = defaultHealthTimeout
	}

	return &AgentClient{
		baseURL: strings.TrimRight(cfg.Agent.URL, "/"),
		client:  &http.Client{Timeout: timeout},
		probe:   &http.Client{Timeout: healthTimeout},
		logger:  logger,
	}
}

type agentRequest struct {
	Summary  string           `json:"summary"`
	Mode     string           `json:"mode"`
	Question string           `json:"question,omitempty"`
	History  []agentTurn      `json:"history,omitempty"`
	Context  *agentBundleInfo `json:"context,omitempty"`
}

type agentTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type agentBundleInfo struct {
	HealthScore    int `json:"health_score"`
	TotalPods      int `json:"total_pods"`
	FailingPods    int `json:"failing_pods"`
	CriticalAlerts int `json:"critical_alerts"`
	WarningEvents  int `json:"warning_events"`
}

func (a *AgentClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.probe.Do(req)
	if err != nil {
		return fmt.Errorf("agent unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agent returned status %d", resp.StatusCode)
	}
	return nil
}

func (a *AgentClient) Analyze(ctx context.Context, digest string, overview models.BundleOverview) (*models.AnalysisResult, error) {
	body, err := a.post(ctx, "/analyze/bundle", agentRequest{
		Summary: digest,
		Mode:    "initial_analysis",
		Context: &agentBundleInfo{
			HealthScore:    overview.HealthScore,
			TotalPods:      overview.TotalPods,
			FailingPods:    overview.FailingPods,
			CriticalAlerts: overview.CriticalAlerts,
			WarningEvents:  overview.WarningEvents,
		},
	})
	if err != nil {
		metrics.AgentRequests.WithLabelValues("analyze", "error").Inc()
		return nil, err
	}
	metrics.AgentRequests.WithLabelValues("analyze", "ok").Inc()

	result := parseAnalysis(string(body))
	return result, nil
}

func (a *AgentClient) Ask(ctx context.Context, digest, question string, history []models.ChatMessage) (string, error) {
	turns := make([]agentTurn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, agentTurn{Role: msg.Role, Content: msg.Content})
	}

	body, err := a.post(ctx, "/analyze/bundle", agentRequest{
		Summary:  digest,
		Mode:     "question",
		Question: question,
		History:  turns,
	})
	if err != nil {
		metrics.AgentRequests.WithLabelValues("question", "error").Inc()
		return "", err
	}
	metrics.AgentRequests.WithLabelValues("question", "ok").Inc()

	var resp struct {
		Answer  string `json:"answer"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(body, &resp); err == nil {
		if resp.Answer != "" {
			return resp.Answer, nil
		}
		if resp.Summary != "" {
			return resp.Summary, nil
		}
	}
	return strings.TrimSpace(string(body)), nil
}

type streamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// Stream posts to /analyze-direct and forwards SSE chunks to onChunk until
// the server marks the stream done or the body ends.
func (a *AgentClient) Stream(ctx context.Context, query, systemPrompt string, onChunk func(content string)) error {
	payload, err := json.Marshal(map[string]any{
		"query":         query,
		"system_prompt": systemPrompt,
		"stream":        true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze-direct", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.client.Do(req)
	if err != nil {
		metrics.AgentRequests.WithLabelValues("stream", "error").Inc()
		return fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.AgentRequests.WithLabelValues("stream", "error").Inc()
		return fmt.Errorf("agent returned status %d", resp.StatusCode)
	}
	metrics.AgentRequests.WithLabelValues("stream", "ok").Inc()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			a.logger.Debug("skipping malformed stream chunk", zap.String("data", data))
			continue
		}
		if chunk.Content != "" {
			onChunk(chunk.Content)
		}
		if chunk.Done {
			return nil
		}
	}
	return scanner.Err()
}

func (a *AgentClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return io.ReadAll(resp.Body)
}
