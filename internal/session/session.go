package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/analyzer"
	"github.com/bundlescope/bundlescope/internal/bus"
	"github.com/bundlescope/bundlescope/internal/cache"
	"github.com/bundlescope/bundlescope/internal/collectors"
	"github.com/bundlescope/bundlescope/internal/llm"
	"github.com/bundlescope/bundlescope/internal/metrics"
	"github.com/bundlescope/bundlescope/internal/models"
	"github.com/bundlescope/bundlescope/internal/summarizer"
)

// State tracks where the session sits in its lifecycle.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateRestored        State = "restored"
	StatePatternAnalyzed State = "pattern_analyzed"
	StateAIAnalyzing     State = "ai_analyzing"
	StateAIAnalyzed      State = "ai_analyzed"
	StateAIFailed        State = "ai_failed"
	StateConversing      State = "conversing"
)

// ErrNoBundle is returned by operations that require a loaded bundle.
var ErrNoBundle = errors.New("no bundle loaded")

// Session owns the loaded bundle and every operation on it. All state is
// guarded by mu. Provider calls run with the lock released; their results
// are committed only if no newer load or analysis superseded them, tracked
// by the generation counter.
type Session struct {
	store    *cache.Store
	llm      llm.Client
	bus      *bus.Bus
	patterns *analyzer.PatternAnalyzer
	logger   *zap.Logger

	mu          sync.Mutex
	source      collectors.ContextSource
	bundle      *models.BundleContext
	digest      string
	fingerprint string
	current     *models.StoredAnalysis
	state       State
	generation  uint64
}

func New(store *cache.Store, client llm.Client, eventBus *bus.Bus, logger *zap.Logger) *Session {
	return &Session{
		store:    store,
		llm:      client,
		bus:      eventBus,
		patterns: analyzer.NewPatternAnalyzer(),
		logger:   logger,
		state:    StateUninitialized,
	}
}

// LoadResult reports what a load produced.
type LoadResult struct {
	Fingerprint string                `json:"fingerprint"`
	State       State                 `json:"state"`
	Overview    models.BundleOverview `json:"overview"`
	Cached      bool                  `json:"cached"`
}

// Load collects a bundle context from source, replaces the session state
// wholesale, and restores any cached analysis for the bundle's fingerprint.
// A corrupt or mismatched cache entry is treated as a miss.
func (s *Session) Load(ctx context.Context, source collectors.ContextSource) (*LoadResult, error) {
	bundle, err := source.Collect(ctx)
	if err != nil {
		metrics.AnalysisFailures.WithLabelValues("collect").Inc()
		return nil, fmt.Errorf("failed to collect bundle context: %w", err)
	}

	digest := summarizer.Build(bundle)
	overview := bundle.Overview()
	fingerprint := cache.Fingerprint(source.Path(), overview.HealthScore, overview.TotalPods)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.source = source
	s.bundle = bundle
	s.digest = digest
	s.fingerprint = fingerprint
	s.current = nil

	cached := false
	stored, err := s.store.Load(fingerprint)
	if err != nil {
		s.logger.Warn("cache lookup failed", zap.Error(err))
	} else if stored != nil {
		if stored.Analysis != nil {
			stored.Analysis.Source = models.SourceCache
		}
		s.current = stored
		cached = true
		metrics.AnalysesTotal.WithLabelValues(models.SourceCache).Inc()
	}

	if cached {
		s.setStateLocked(StateRestored)
	} else {
		s.setStateLocked(StateUninitialized)
	}

	s.logger.Info("bundle loaded",
		zap.String("path", source.Path()),
		zap.String("fingerprint", fingerprint),
		zap.Bool("cached", cached),
		zap.Int("health_score", overview.HealthScore),
	)

	result := &LoadResult{Fingerprint: fingerprint, State: s.state, Overview: overview, Cached: cached}
	s.bus.Publish(bus.TopicBundleLoaded, result)
	return result, nil
}

// Analyze produces an analysis for the loaded bundle. Without force an
// existing result is returned as is. With force the cached entry and the
// conversation are dropped first and the AI path is always attempted, even
// when the bundle looks healthy.
func (s *Session) Analyze(ctx context.Context, force bool) (*models.StoredAnalysis, error) {
	s.mu.Lock()
	if s.bundle == nil {
		s.mu.Unlock()
		return nil, ErrNoBundle
	}

	if !force && s.current != nil && s.current.Analysis != nil {
		out := s.snapshotLocked()
		s.mu.Unlock()
		return out, nil
	}

	if force {
		if err := s.store.Clear(s.fingerprint); err != nil {
			s.logger.Warn("failed to clear cache entry",
				zap.Error(err), zap.String("fingerprint", s.fingerprint))
		} else {
			s.bus.Publish(bus.TopicCacheCleared, map[string]string{"fingerprint": s.fingerprint})
		}
		if s.current != nil {
			s.current.Messages = nil
		}
	}

	bundle := s.bundle
	digest := s.digest
	start := time.Now()

	if !force && !analyzer.SignificantIssues(bundle) {
		result := s.patterns.Analyze(bundle)
		s.commitLocked(result, StatePatternAnalyzed)
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		out := s.snapshotLocked()
		s.mu.Unlock()
		return out, nil
	}

	s.generation++
	gen := s.generation
	s.setStateLocked(StateAIAnalyzing)
	s.bus.Publish(bus.TopicAnalysisStarted, map[string]any{
		"fingerprint": s.fingerprint,
		"force":       force,
	})
	s.mu.Unlock()

	result, err := s.analyzeAI(ctx, digest, bundle)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// A newer load or analysis superseded this call; its response must
		// not clobber the current state.
		s.logger.Info("discarding superseded analysis response", zap.Uint64("generation", gen))
		return s.snapshotLocked(), nil
	}

	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AnalysisFailures.WithLabelValues("ai").Inc()
		s.logger.Warn("ai analysis failed, falling back to pattern rules", zap.Error(err))
		s.bus.Publish(bus.TopicAnalysisFailed, map[string]string{"error": err.Error()})

		fallback := s.patterns.Analyze(bundle)
		fallback.Summary = fmt.Sprintf("AI analysis unavailable (%s). %s", err.Error(), fallback.Summary)
		s.commitLocked(fallback, StateAIFailed)
		return s.snapshotLocked(), nil
	}

	s.commitLocked(result, StateAIAnalyzed)
	return s.snapshotLocked(), nil
}

// Reanalyze forces a fresh analysis, bypassing both the cached result and
// the significant-issues gate.
func (s *Session) Reanalyze(ctx context.Context) (*models.StoredAnalysis, error) {
	return s.Analyze(ctx, true)
}

func (s *Session) analyzeAI(ctx context.Context, digest string, bundle *models.BundleContext) (*models.AnalysisResult, error) {
	if err := s.llm.Health(ctx); err != nil {
		return nil, fmt.Errorf("provider unavailable: %w", err)
	}
	return s.llm.Analyze(ctx, digest, bundle.Overview())
}

// Ask answers a follow-up question about the loaded bundle. The user
// message is recorded and persisted before the provider call, so it
// survives provider failures.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	if s.bundle == nil {
		s.mu.Unlock()
		return "", ErrNoBundle
	}
	if s.current == nil {
		s.current = &models.StoredAnalysis{Fingerprint: s.fingerprint}
	}

	history := append([]models.ChatMessage(nil), s.current.Messages...)
	userMsg := models.ChatMessage{Role: models.RoleUser, Content: question, Timestamp: time.Now()}
	s.current.Messages = append(s.current.Messages, userMsg)
	s.bus.Publish(bus.TopicConversationMessage, userMsg)
	s.saveLocked()

	gen := s.generation
	digest := s.digest
	s.mu.Unlock()

	answer, err := s.llm.Ask(ctx, digest, question, history)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		metrics.AnalysisFailures.WithLabelValues("chat").Inc()
		return "", fmt.Errorf("question failed: %w", err)
	}
	if gen != s.generation {
		// The bundle changed while the provider was answering; the reply
		// no longer belongs to this conversation.
		return answer, nil
	}

	assistant := models.ChatMessage{Role: models.RoleAssistant, Content: answer, Timestamp: time.Now()}
	s.current.Messages = append(s.current.Messages, assistant)
	s.setStateLocked(StateConversing)
	metrics.ChatTurns.Inc()
	s.bus.Publish(bus.TopicConversationMessage, assistant)
	s.saveLocked()
	return answer, nil
}

// Current returns a copy of the stored analysis, or nil before the first
// analysis.
func (s *Session) Current() *models.StoredAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Digest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digest
}

func (s *Session) Bundle() *models.BundleContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle
}

func (s *Session) StateNow() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Fingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprint
}

func (s *Session) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return append([]models.ChatMessage(nil), s.current.Messages...)
}

// ProviderHealth probes the configured provider.
func (s *Session) ProviderHealth(ctx context.Context) error {
	return s.llm.Health(ctx)
}

// ClearCache drops the persisted entry for the loaded bundle.
func (s *Session) ClearCache() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fingerprint == "" {
		return ErrNoBundle
	}
	if err := s.store.Clear(s.fingerprint); err != nil {
		return err
	}
	s.bus.Publish(bus.TopicCacheCleared, map[string]string{"fingerprint": s.fingerprint})
	return nil
}

func (s *Session) setStateLocked(st State) {
	if s.state == st {
		return
	}
	s.state = st
	s.bus.Publish(bus.TopicSessionState, string(st))
}

func (s *Session) commitLocked(result *models.AnalysisResult, st State) {
	result.Normalize()
	if s.current == nil {
		s.current = &models.StoredAnalysis{}
	}
	s.current.Fingerprint = s.fingerprint
	s.current.Analysis = result

	s.setStateLocked(st)
	metrics.AnalysesTotal.WithLabelValues(result.Source).Inc()
	s.bus.Publish(bus.TopicAnalysisCompleted, map[string]string{
		"fingerprint": s.fingerprint,
		"source":      result.Source,
	})
	s.saveLocked()
}

// saveLocked persists the current entry. Persistence failures are logged,
// never surfaced to callers.
func (s *Session) saveLocked() {
	if s.current == nil {
		return
	}
	s.current.SavedAt = time.Now()
	if err := s.store.Save(s.current); err != nil {
		metrics.AnalysisFailures.WithLabelValues("save").Inc()
		s.logger.Warn("failed to persist analysis",
			zap.Error(err), zap.String("fingerprint", s.fingerprint))
	}
}

func (s *Session) snapshotLocked() *models.StoredAnalysis {
	if s.current == nil {
		return nil
	}
	out := *s.current
	out.Messages = append([]models.ChatMessage(nil), s.current.Messages...)
	if s.current.Analysis != nil {
		analysis := *s.current.Analysis
		out.Analysis = &analysis
	}
	return &out
}
