package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundwater-platform/internal/chat"
	"groundwater-platform/pkg/cache"
)

func newChatService(t *testing.T) *ChatService {
	t.Helper()
	store := newTestStore(t, queryRecords)
	query := NewQueryService(store, cache.New(), time.Hour, time.Minute, testLogger, testMetrics)
	return NewChatService(query, testLogger, testMetrics)
}

func TestChatService_AssignsSessionID(t *testing.T) {
	svc := newChatService(t)

	resp := svc.Answer(context.Background(), "Show me Karnataka groundwater data", "")
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, chat.IntentStateAggregate, resp.Intent)
}

func TestChatService_KeepsExistingSessionID(t *testing.T) {
	svc := newChatService(t)

	resp := svc.Answer(context.Background(), "list states", "session-123")
	assert.Equal(t, "session-123", resp.SessionID)
	assert.Equal(t, chat.IntentListStates, resp.Intent)
	require.Len(t, resp.States, 2)
}
