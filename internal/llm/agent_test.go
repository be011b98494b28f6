package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/models"
)

func newTestAgent(url string) *AgentClient {
	cfg := &config.Config{}
	cfg.Agent.URL = url
	cfg.Agent.Timeout = 5 * time.Second
	cfg.Agent.HealthTimeout = 200 * time.Millisecond
	return NewAgentClient(cfg, zap.NewNop())
}

func TestAgentHealth(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		assert.NoError(t, newTestAgent(srv.URL).Health(context.Background()))
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := newTestAgent(srv.URL).Health(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		assert.Error(t, newTestAgent(srv.URL).Health(context.Background()))
	})

	t.Run("slow server trips the probe timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer srv.Close()

		assert.Error(t, newTestAgent(srv.URL).Health(context.Background()))
	})
}

func TestAgentAnalyze(t *testing.T) {
	var got agentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze/bundle", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(models.AnalysisResult{
			Summary:         "The database tier is crash-looping.",
			RootCauses:      []models.RootCause{{Issue: "postgres misconfiguration", Likelihood: "high"}},
			Recommendations: []models.Recommendation{{Priority: "critical", Action: "Fix the connection string"}},
		})
	}))
	defer srv.Close()

	overview := models.BundleOverview{HealthScore: 60, TotalPods: 20, FailingPods: 3, CriticalAlerts: 1, WarningEvents: 7}
	result, err := newTestAgent(srv.URL).Analyze(context.Background(), "digest text", overview)
	require.NoError(t, err)

	assert.Equal(t, "initial_analysis", got.Mode)
	assert.Equal(t, "digest text", got.Summary)
	require.NotNil(t, got.Context)
	assert.Equal(t, 60, got.Context.HealthScore)
	assert.Equal(t, 3, got.Context.FailingPods)

	assert.Equal(t, "The database tier is crash-looping.", result.Summary)
	assert.Equal(t, models.SourceAI, result.Source)
	require.Len(t, result.RootCauses, 1)
}

func TestAgentAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestAgent(srv.URL).Analyze(context.Background(), "digest", models.BundleOverview{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestAgentAsk(t *testing.T) {
	t.Run("answer key", func(t *testing.T) {
		var got agentRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, `{"answer": "postgres is out of memory"}`)
		}))
		defer srv.Close()

		history := []models.ChatMessage{{Role: models.RoleUser, Content: "earlier question"}}
		answer, err := newTestAgent(srv.URL).Ask(context.Background(), "digest", "why?", history)
		require.NoError(t, err)

		assert.Equal(t, "question", got.Mode)
		assert.Equal(t, "why?", got.Question)
		require.Len(t, got.History, 1)
		assert.Equal(t, "earlier question", got.History[0].Content)
		assert.Equal(t, "postgres is out of memory", answer)
	})

	t.Run("summary fallback key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"summary": "see the crash loop section"}`)
		}))
		defer srv.Close()

		answer, err := newTestAgent(srv.URL).Ask(context.Background(), "digest", "why?", nil)
		require.NoError(t, err)
		assert.Equal(t, "see the crash loop section", answer)
	})

	t.Run("plain text body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "  just text\n")
		}))
		defer srv.Close()

		answer, err := newTestAgent(srv.URL).Ask(context.Background(), "digest", "why?", nil)
		require.NoError(t, err)
		assert.Equal(t, "just text", answer)
	})
}

func TestAgentStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze-direct", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"content\":\"The pod \",\"done\":false}\n\n")
		fmt.Fprint(w, ": heartbeat\n\n")
		fmt.Fprint(w, "data: {\"content\":\"is crash-looping.\",\"done\":false}\n\n")
		fmt.Fprint(w, "data: {\"content\":\"\",\"done\":true}\n\n")
		fmt.Fprint(w, "data: {\"content\":\"never delivered\",\"done\":false}\n\n")
	}))
	defer srv.Close()

	var chunks []string
	err := newTestAgent(srv.URL).Stream(context.Background(), "what is wrong?", "system", func(content string) {
		chunks = append(chunks, content)
	})
	require.NoError(t, err)

	assert.Equal(t, "The pod is crash-looping.", strings.Join(chunks, ""))
	assert.NotContains(t, strings.Join(chunks, ""), "never delivered")
}

func TestAgentStreamDoneSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"content\":\"partial\",\"done\":false}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	var chunks []string
	err := newTestAgent(srv.URL).Stream(context.Background(), "q", "", func(content string) {
		chunks = append(chunks, content)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"partial"}, chunks)
}

func TestAgentStreamMalformedChunksSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: not json at all\n\n")
		fmt.Fprint(w, "data: {\"content\":\"good\",\"done\":true}\n\n")
	}))
	defer srv.Close()

	var chunks []string
	err := newTestAgent(srv.URL).Stream(context.Background(), "q", "", func(content string) {
		chunks = append(chunks, content)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, chunks)
}
