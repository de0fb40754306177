// AngelaMos | 2026
// store.go

// Package state keeps a per-session mirror of what a member is looking at so
// realtime pushes can be applied by id instead of replacing whole lists.
package state

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

type Keyed interface {
	Key() string
}

// Collection is an id-keyed set that preserves first-insertion order.
type Collection[T Keyed] struct {
	mu    sync.RWMutex
	order []string
	items map[string]T
}

func NewCollection[T Keyed]() *Collection[T] {
	return &Collection[T]{items: make(map[string]T)}
}

// Upsert stores item and reports whether it was new.
func (c *Collection[T]) Upsert(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := item.Key()
	_, exists := c.items[key]
	if !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = item
	return !exists
}

func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	return item, ok
}

func (c *Collection[T]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == key })
	return true
}

func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.items[key])
	}
	return out
}

// Replace swaps the whole collection, used after a full re-fetch.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = make([]string, 0, len(items))
	c.items = make(map[string]T, len(items))
	for _, item := range items {
		key := item.Key()
		if _, dup := c.items[key]; !dup {
			c.order = append(c.order, key)
		}
		c.items[key] = item
	}
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

type ProductRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (p ProductRef) Key() string { return p.ID }

type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u UserRef) Key() string { return u.ID }

type OrderRef struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (o OrderRef) Key() string { return o.ID }

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	IsSystem       bool      `json:"is_system"`
	CreatedAt      time.Time `json:"created_at"`
}

type Conversation struct {
	ID            string    `json:"id"`
	ProductID     *string   `json:"product_id,omitempty"`
	Participants  [2]string `json:"participants"`
	LastMessageAt time.Time `json:"last_message_at"`
	Messages      []Message `json:"messages,omitempty"`
}

func (c Conversation) Key() string { return c.ID }

// Store is one session's view of the marketplace.
type Store struct {
	Products      *Collection[ProductRef]
	Users         *Collection[UserRef]
	Orders        *Collection[OrderRef]
	Conversations *Collection[Conversation]

	msgMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		Products:      NewCollection[ProductRef](),
		Users:         NewCollection[UserRef](),
		Orders:        NewCollection[OrderRef](),
		Conversations: NewCollection[Conversation](),
	}
}

// AppendMessage adds m to its conversation. A message id already present is
// a no-op that returns false; so is a message for an unknown conversation,
// which the caller should answer with a re-fetch.
func (s *Store) AppendMessage(m Message) bool {
	s.msgMu.Lock()
	defer s.msgMu.Unlock()

	conv, ok := s.Conversations.Get(m.ConversationID)
	if !ok {
		return false
	}

	if slices.ContainsFunc(conv.Messages, func(x Message) bool { return x.ID == m.ID }) {
		return false
	}

	msgs := make([]Message, len(conv.Messages), len(conv.Messages)+1)
	copy(msgs, conv.Messages)
	msgs = append(msgs, m)
	slices.SortStableFunc(msgs, func(a, b Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	conv.Messages = msgs

	if m.CreatedAt.After(conv.LastMessageAt) {
		conv.LastMessageAt = m.CreatedAt
	}
	s.Conversations.Upsert(conv)
	return true
}

// ConversationsByRecency orders the inbox newest first.
func (s *Store) ConversationsByRecency() []Conversation {
	convs := s.Conversations.All()
	slices.SortStableFunc(convs, func(a, b Conversation) int {
		return cmp.Compare(b.LastMessageAt.UnixNano(), a.LastMessageAt.UnixNano())
	})
	return convs
}
