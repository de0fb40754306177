// AngelaMos | 2026
// service_test.go

package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/state"
)

type memRepo struct {
	Repository
	mu       sync.Mutex
	clock    time.Time
	convs    map[string]*Conversation
	messages map[string][]Message
	dedupe   map[string]bool
	seq      int
}

func newMemRepo() *memRepo {
	return &memRepo{
		clock:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		convs:    map[string]*Conversation{},
		messages: map[string][]Message{},
		dedupe:   map[string]bool{},
	}
}

func (m *memRepo) FindOrCreate(_ context.Context, a, b string, productID *string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	first, second := canonicalPair(a, b)
	for _, c := range m.convs {
		sameProduct := (c.ProductID == nil && productID == nil) ||
			(c.ProductID != nil && productID != nil && *c.ProductID == *productID)
		if c.ParticipantA == first && c.ParticipantB == second && sameProduct {
			cp := *c
			return &cp, nil
		}
	}

	m.seq++
	c := &Conversation{
		ID:            fmt.Sprintf("c%d", m.seq),
		ProductID:     productID,
		ParticipantA:  first,
		ParticipantB:  second,
		LastMessageAt: m.clock,
		CreatedAt:     m.clock,
	}
	m.convs[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.convs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) GetForUpdate(ctx context.Context, id string) (*Conversation, error) {
	return m.GetByID(ctx, id)
}

func (m *memRepo) AppendMessage(_ context.Context, msg *Message) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.DedupeKey != nil {
		if m.dedupe[*msg.DedupeKey] {
			return false, nil
		}
		m.dedupe[*msg.DedupeKey] = true
	}

	m.seq++
	msg.ID = fmt.Sprintf("m%d", m.seq)
	m.clock = m.clock.Add(time.Second)
	msg.CreatedAt = m.clock
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], *msg)
	m.convs[msg.ConversationID].LastMessageAt = msg.CreatedAt
	return true, nil
}

func (m *memRepo) ListMessages(_ context.Context, id string, _ int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages[id]...), nil
}

func (m *memRepo) ListForUser(_ context.Context, userID string) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Summary
	for _, c := range m.convs {
		if c.HasParticipant(userID) {
			out = append(out, Summary{Conversation: *c})
		}
	}
	return out, nil
}

type inlineTx struct{}

func (inlineTx) WithTx(_ context.Context, fn func(core.DBTX) error) error {
	return fn(nil)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]state.Event
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, ev state.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]state.Event{}
	}
	p.events[userID] = append(p.events[userID], ev)
	return nil
}

func newTestService() (*Service, *memRepo, *recordingPublisher) {
	repo := newMemRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, inlineTx{}, func(core.DBTX) Repository { return repo }, pub)
	return svc, repo, pub
}

func TestFindOrCreateIgnoresParticipantOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	product := "p1"

	first, err := svc.FindOrCreate(ctx, "buyer", "seller", &product)
	require.NoError(t, err)

	second, err := svc.FindOrCreate(ctx, "seller", "buyer", &product)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "buyer", first.ParticipantA)

	direct, err := svc.FindOrCreate(ctx, "seller", "buyer", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, direct.ID)
	assert.Nil(t, direct.ProductID)
}

func TestFindOrCreateRejectsSelf(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.FindOrCreate(context.Background(), "u1", "u1", nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSendRequiresParticipantAndText(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	conv, err := svc.FindOrCreate(ctx, "a", "b", nil)
	require.NoError(t, err)

	_, err = svc.Send(ctx, "a", conv.ID, "   ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Send(ctx, "intruder", conv.ID, "hello")
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Send(ctx, "a", "missing", "hello")
	assert.ErrorIs(t, err, core.ErrNotFound)

	msg, err := svc.Send(ctx, "a", conv.ID, "  Bonjour, toujours dispo ?  ")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour, toujours dispo ?", msg.Text)
	assert.False(t, msg.IsSystem)

	require.Len(t, pub.events["a"], 1)
	require.Len(t, pub.events["b"], 1)
	assert.Equal(t, state.EventMessage, pub.events["b"][0].Type)
	assert.Equal(t, msg.ID, pub.events["b"][0].Message.ID)
}

func TestSendSystemDedupes(t *testing.T) {
	svc, repo, pub := newTestService()
	ctx := context.Background()

	conv, err := svc.FindOrCreate(ctx, "admin", "seller", nil)
	require.NoError(t, err)

	msg, inserted, err := svc.SendSystem(ctx, conv.ID, "admin", "notice", "evt-1", state.Orders{})
	require.NoError(t, err)
	require.True(t, inserted)
	assert.True(t, msg.IsSystem)

	again, inserted, err := svc.SendSystem(ctx, conv.ID, "admin", "notice", "evt-1", state.Orders{})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Nil(t, again)

	assert.Len(t, repo.messages[conv.ID], 1)
	assert.Len(t, pub.events["seller"], 1)
	assert.Equal(t, "/orders", pub.events["seller"][0].Link)
}

func TestMessagesAreChronological(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	conv, err := svc.FindOrCreate(ctx, "a", "b", nil)
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.Send(ctx, "b", conv.ID, text)
		require.NoError(t, err)
	}

	msgs, err := svc.Messages(ctx, "a", conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}

	_, err = svc.Messages(ctx, "c", conv.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	snap, err := svc.Snapshot(ctx, "a")
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Len(t, snap[0].Messages, 3)
}
