package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/config"
	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

// ErrConversationNotFound is returned when a conversation id is unknown.
var ErrConversationNotFound = errors.New("conversation not found")

// Greeting is the assistant message seeded into every new conversation.
const Greeting = "您好，我是银行智能投顾助手。请描述您的投资需求，例如风险偏好、目标年化、投资期限与预算等，我将为您给出参考配置。"

// DefaultTitle is the title of a conversation before its first user message.
const DefaultTitle = "新对话"

const conversationsCollection = "conversations"

// Generic in-memory cache with type safety. A non-positive TTL disables
// expiration.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*cacheItem[V]
	ttl   time.Duration
}

type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

func NewCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		items: make(map[K]*cacheItem[V]),
		ttl:   ttl,
	}

	if ttl > 0 {
		go c.cleanup()
	}

	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || c.expired(item) {
		var zero V
		return zero, false
	}

	return item.value, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem[V]{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Remove deletes the key under a single lock and reports whether a live
// entry was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	delete(c.items, key)
	return ok && !c.expired(item)
}

// Values returns all live entries in unspecified order.
func (c *Cache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]V, 0, len(c.items))
	for _, item := range c.items {
		if !c.expired(item) {
			out = append(out, item.value)
		}
	}
	return out
}

func (c *Cache[K, V]) expired(item *cacheItem[V]) bool {
	return c.ttl > 0 && time.Now().After(item.expiration)
}

func (c *Cache[K, V]) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, item := range c.items {
			if c.expired(item) {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// ConversationStore persists conversations in Firestore with an in-memory
// tier that keeps working when Firestore is unreachable or not configured.
// Persistence failures are logged and swallowed: losing durability must
// never break a running chat.
type ConversationStore struct {
	log             *zap.Logger
	firestoreClient *firestore.Client
	cache           *Cache[string, *models.Conversation]
}

func NewConversationStore(cfg *config.Config, log *zap.Logger) *ConversationStore {
	var client *firestore.Client
	if cfg.FirestoreProject != "" {
		c, err := firestore.NewClient(context.Background(), cfg.FirestoreProject)
		if err != nil {
			// Fall back to in-memory only.
			log.Warn("failed to initialize Firestore, running cache-only", zap.Error(err))
		} else {
			client = c
		}
	}

	return &ConversationStore{
		log:             log,
		firestoreClient: client,
		cache:           NewCache[string, *models.Conversation](0),
	}
}

// Durable reports whether a Firestore backend is attached.
func (s *ConversationStore) Durable() bool { return s.firestoreClient != nil }

// Create starts a new conversation seeded with the greeting message.
func (s *ConversationStore) Create(ctx context.Context, title string) (*models.Conversation, error) {
	if title == "" {
		title = DefaultTitle
	}

	conv := &models.Conversation{
		ID:    uuid.NewString(),
		Title: title,
		Messages: []models.ConversationMessage{{
			Role:      models.RoleAssistant,
			Content:   models.MessageContent{Text: Greeting},
			Timestamp: time.Now().UTC(),
		}},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Save(ctx, *conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get returns a conversation by id, preferring the in-memory tier.
func (s *ConversationStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	if conv, found := s.cache.Get(id); found {
		return conv, nil
	}

	if s.firestoreClient != nil {
		doc, err := s.firestoreClient.Collection(conversationsCollection).Doc(id).Get(ctx)
		if err == nil {
			var conv models.Conversation
			if err := doc.DataTo(&conv); err == nil {
				s.cache.Set(id, &conv)
				return &conv, nil
			}
		}
	}

	return nil, ErrConversationNotFound
}

// Save writes the conversation to both tiers. A Firestore failure degrades
// to cache-only and is not returned to the caller.
func (s *ConversationStore) Save(ctx context.Context, conv models.Conversation) error {
	c := conv
	s.cache.Set(conv.ID, &c)

	if s.firestoreClient != nil {
		if _, err := s.firestoreClient.Collection(conversationsCollection).Doc(conv.ID).Set(ctx, conv); err != nil {
			s.log.Warn("failed to persist conversation, cache-only",
				zap.String("conversation_id", conv.ID), zap.Error(err))
		}
	}

	return nil
}

// List returns all conversations, newest first.
func (s *ConversationStore) List(ctx context.Context) ([]models.Conversation, error) {
	if s.firestoreClient != nil {
		docs, err := s.firestoreClient.Collection(conversationsCollection).
			OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
		if err == nil {
			out := make([]models.Conversation, 0, len(docs))
			for _, doc := range docs {
				var conv models.Conversation
				if err := doc.DataTo(&conv); err == nil {
					out = append(out, conv)
				}
			}
			return out, nil
		}
		s.log.Warn("failed to list conversations from Firestore, using cache", zap.Error(err))
	}

	cached := s.cache.Values()
	out := make([]models.Conversation, 0, len(cached))
	for _, conv := range cached {
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a conversation from both tiers. The cache removal is a
// single locked operation, so a concurrent Save cannot slip between an
// existence check and the delete.
func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	found := s.cache.Remove(id)

	if s.firestoreClient != nil {
		doc := s.firestoreClient.Collection(conversationsCollection).Doc(id)
		if !found {
			if _, err := doc.Get(ctx); err == nil {
				found = true
			}
		}
		if _, err := doc.Delete(ctx); err != nil {
			s.log.Warn("failed to delete conversation from Firestore",
				zap.String("conversation_id", id), zap.Error(err))
		}
	}

	if !found {
		return ErrConversationNotFound
	}
	return nil
}

// Clear resets a conversation to the greeting message, keeping its identity.
func (s *ConversationStore) Clear(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cleared := *conv
	cleared.Messages = []models.ConversationMessage{{
		Role:      models.RoleAssistant,
		Content:   models.MessageContent{Text: Greeting},
		Timestamp: time.Now().UTC(),
	}}

	if err := s.Save(ctx, cleared); err != nil {
		return nil, err
	}
	return &cleared, nil
}

// Close closes the Firestore client.
func (s *ConversationStore) Close() error {
	if s.firestoreClient != nil {
		return s.firestoreClient.Close()
	}
	return nil
}
