package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrConversationNotFound indicates the requested conversation does not exist.
var ErrConversationNotFound = errors.New("conversation: conversation not found")

// StateStore persists per-conversation state between turns.
type StateStore interface {
	Save(ctx context.Context, state *ConversationState) error
	Load(ctx context.Context, conversationID string) (*ConversationState, error)
}

const stateTTL = 24 * time.Hour

// RedisStateStore keeps conversation state in Redis with a rolling TTL.
type RedisStateStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(client *redis.Client, tracer trace.Tracer) *RedisStateStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("vetcare.internal.conversation.state")
	}
	return &RedisStateStore{
		redis:  client,
		tracer: tracer,
	}
}

func (s *RedisStateStore) Save(ctx context.Context, state *ConversationState) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_state")
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, stateKey(state.ConversationID), data, stateTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Load(ctx context.Context, conversationID string) (*ConversationState, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_state")
	defer span.End()

	data, err := s.redis.Get(ctx, stateKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrConversationNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load state: %w", err)
	}

	var state ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode state: %w", err)
	}
	return &state, nil
}

func stateKey(id string) string {
	return fmt.Sprintf("conversation:state:%s", id)
}

// MemoryStateStore is an in-process StateStore used by the CLI and tests.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string][]byte)}
}

func (s *MemoryStateStore) Save(_ context.Context, state *ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("conversation: failed to marshal state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ConversationID] = data
	return nil
}

func (s *MemoryStateStore) Load(_ context.Context, conversationID string) (*ConversationState, error) {
	s.mu.RLock()
	data, ok := s.states[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrConversationNotFound
	}
	var state ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("conversation: failed to decode state: %w", err)
	}
	return &state, nil
}
