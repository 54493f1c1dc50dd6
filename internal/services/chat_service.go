package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"groundwater-platform/internal/chat"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

// ChatService answers chat queries against the live dataset and tracks
// session IDs so a conversation can be correlated across requests.
type ChatService struct {
	query   *QueryService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewChatService creates a new chat service.
func NewChatService(query *QueryService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ChatService {
	return &ChatService{
		query:   query,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Answer detects the query's intent and builds its payload. An empty
// sessionID starts a new session.
func (s *ChatService) Answer(ctx context.Context, query, sessionID string) chat.Response {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	resp := chat.Answer(query, s.query.Snapshot())
	resp.SessionID = sessionID

	s.logger.Info(ctx, "[CHAT_ANSWER] Chat query answered", logging.Fields{
		"intent":      string(resp.Intent),
		"session_id":  sessionID,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return resp
}
