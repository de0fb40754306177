// AngelaMos | 2026
// notify_test.go

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/auth"
	"github.com/carterperez-dev/balaoui/internal/chat"
	"github.com/carterperez-dev/balaoui/internal/config"
	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/state"
)

type convKey struct {
	a, b, product string
}

type fakeConversations struct {
	convs    map[convKey]*chat.Conversation
	messages map[string][]chat.Message
	seen     map[string]bool
	links    []state.View
	fail     error
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{
		convs:    map[convKey]*chat.Conversation{},
		messages: map[string][]chat.Message{},
		seen:     map[string]bool{},
	}
}

func (f *fakeConversations) FindOrCreate(_ context.Context, a, b string, productID *string) (*chat.Conversation, error) {
	if a > b {
		a, b = b, a
	}
	key := convKey{a: a, b: b}
	if productID != nil {
		key.product = *productID
	}
	if c, ok := f.convs[key]; ok {
		return c, nil
	}
	c := &chat.Conversation{
		ID:           fmt.Sprintf("c%d", len(f.convs)+1),
		ProductID:    productID,
		ParticipantA: a,
		ParticipantB: b,
	}
	f.convs[key] = c
	return c, nil
}

func (f *fakeConversations) SendSystem(
	_ context.Context,
	conversationID, senderID, text, dedupeKey string,
	link state.View,
) (*chat.Message, bool, error) {
	if f.fail != nil {
		return nil, false, f.fail
	}
	if f.seen[dedupeKey] {
		return nil, false, nil
	}
	f.seen[dedupeKey] = true
	f.links = append(f.links, link)

	msg := chat.Message{
		ID:             fmt.Sprintf("m%d", len(f.seen)),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		IsSystem:       true,
	}
	f.messages[conversationID] = append(f.messages[conversationID], msg)
	return &msg, true, nil
}

type recordingPublisher struct {
	events map[string][]state.Event
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, ev state.Event) error {
	if p.events == nil {
		p.events = map[string][]state.Event{}
	}
	p.events[userID] = append(p.events[userID], ev)
	return nil
}

type recordingMirror struct {
	keys []string
}

func (m *recordingMirror) Publish(_ context.Context, key string, _ []byte) error {
	m.keys = append(m.keys, key)
	return nil
}

type recordingMailer struct {
	to []string
}

func (m *recordingMailer) Send(_ context.Context, to, _, _ string) error {
	m.to = append(m.to, to)
	return nil
}

type staticDirectory map[string]string

func (d staticDirectory) GetByID(_ context.Context, id string) (*auth.UserInfo, error) {
	addr, ok := d[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &auth.UserInfo{ID: id, Email: addr}, nil
}

func TestResolvedReportNotifiesReporterOnce(t *testing.T) {
	convs := newFakeConversations()
	pub := &recordingPublisher{}
	mirror := &recordingMirror{}
	mailer := &recordingMailer{}
	d := NewDispatcher(convs, pub,
		WithMirror(mirror),
		WithMailer(mailer, staticDirectory{"reporter": "reporter@example.ma"}),
	)

	ev := ReportStatusChanged("admin", "reporter", "prod-x", "Caftan brodé", "resolved")

	first, err := d.Dispatch(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := d.Dispatch(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, again)

	assert.Empty(t, mirror.keys, "fan-out waits for Fanout")
	assert.Empty(t, mailer.to)
	d.Fanout(context.Background(), ev)

	require.Len(t, convs.convs, 1)
	conv := convs.convs[convKey{a: "admin", b: "reporter", product: "prod-x"}]
	require.NotNil(t, conv)

	msgs := convs.messages[conv.ID]
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0].Text, SystemPrefix))
	assert.Contains(t, msgs[0].Text, "Caftan brodé")
	assert.Equal(t, "admin", msgs[0].SenderID)

	assert.Equal(t, state.ProductDetail{ProductID: "prod-x"}, convs.links[0])
	assert.Len(t, pub.events["admin"], 2)
	assert.Equal(t, state.EventConversationsChanged, pub.events["admin"][0].Type)
	assert.Equal(t, []string{ev.ID}, mirror.keys)
	assert.Equal(t, []string{"reporter@example.ma"}, mailer.to)
}

func TestDisputeWithoutProductUsesDirectConversation(t *testing.T) {
	convs := newFakeConversations()
	d := NewDispatcher(convs, nil)

	ev := DisputeStatusChanged("admin", "buyer", "order-1", nil, "", "closed", "Remboursement partiel accordé")
	_, err := d.Dispatch(context.Background(), ev)
	require.NoError(t, err)

	conv := convs.convs[convKey{a: "admin", b: "buyer"}]
	require.NotNil(t, conv)
	assert.Nil(t, conv.ProductID)
	assert.Contains(t, convs.messages[conv.ID][0].Text, "Remboursement partiel accordé")
	assert.Equal(t, state.Orders{}, convs.links[0])
}

func TestDispatchSkipsSelfNotification(t *testing.T) {
	convs := newFakeConversations()
	d := NewDispatcher(convs, nil)

	ev := ProductStatusChanged("admin", "admin", "p1", "Lampe", "approved")
	first, err := d.Dispatch(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, first)
	assert.Empty(t, convs.convs)
}

func TestRenderTemplates(t *testing.T) {
	shipped := Render(OrderShipped("seller", "buyer", "o1", "p1", "Babouches", "Amana", "AM123456MA"))
	assert.Contains(t, shipped, "Amana")
	assert.Contains(t, shipped, "AM123456MA")

	resolved := Render(ReportStatusChanged("admin", "r", "p1", "Tapis", "resolved"))
	dismissed := Render(ReportStatusChanged("admin", "r", "p1", "Tapis", "dismissed"))
	assert.NotEqual(t, resolved, dismissed)

	completed := Render(OrderStatusChanged("buyer", "seller", "o1", "p1", "Théière", "completed"))
	assert.Contains(t, completed, "fonds")

	review := ReviewPosted("buyer", "seller", "o1", "p1", "Théière", 4)
	assert.Contains(t, Render(review), "4/5")
	assert.Equal(t, state.Profile{UserID: "seller"}, Link(review, "c1"))
}

type fakeOutbox struct {
	Outbox
	records   []OutboxRecord
	delivered []string
	retried   map[string]time.Time
	failed    []string
}

func (f *fakeOutbox) ClaimDue(context.Context, time.Time, int) ([]OutboxRecord, error) {
	return f.records, nil
}

func (f *fakeOutbox) MarkDelivered(_ context.Context, id string) error {
	f.delivered = append(f.delivered, id)
	return nil
}

func (f *fakeOutbox) MarkRetry(_ context.Context, id, _ string, next time.Time) error {
	if f.retried == nil {
		f.retried = map[string]time.Time{}
	}
	f.retried[id] = next
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id, _ string) error {
	f.failed = append(f.failed, id)
	return nil
}

// trackingTx records whether a transaction is open while fn runs.
type trackingTx struct {
	open bool
}

func (tx *trackingTx) WithTx(_ context.Context, fn func(core.DBTX) error) error {
	tx.open = true
	defer func() { tx.open = false }()
	return fn(nil)
}

type scriptedHandler struct {
	fail       map[string]bool
	seen       map[string]bool
	tx         *trackingTx
	fanout     []string
	fanoutInTx bool
}

func (h *scriptedHandler) Dispatch(_ context.Context, e Event) (bool, error) {
	if h.fail[e.ID] {
		return false, errors.New("chat unavailable")
	}
	if h.seen[e.ID] {
		return false, nil
	}
	h.seen[e.ID] = true
	return true, nil
}

func (h *scriptedHandler) Fanout(_ context.Context, e Event) {
	if h.tx != nil && h.tx.open {
		h.fanoutInTx = true
	}
	h.fanout = append(h.fanout, e.ID)
}

func record(t *testing.T, e Event, attempts int) OutboxRecord {
	t.Helper()
	payload, err := json.Marshal(e)
	require.NoError(t, err)
	return OutboxRecord{ID: e.ID, Kind: e.Kind, Payload: payload, Status: OutboxPending, Attempts: attempts}
}

func TestRelayDeliversRetriesAndGivesUp(t *testing.T) {
	ok := OrderStatusChanged("buyer", "seller", "o1", "p1", "Vase", "completed")
	flaky := OrderStatusChanged("admin", "buyer", "o2", "p2", "Miroir", "cancelled")
	doomed := OrderStatusChanged("admin", "seller", "o3", "p3", "Pouf", "cancelled")

	box := &fakeOutbox{records: []OutboxRecord{
		record(t, ok, 0),
		record(t, flaky, 1),
		record(t, doomed, 2),
		{ID: "broken", Kind: KindOrderStatus, Payload: []byte("{")},
	}}

	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	tx := &trackingTx{}
	handler := &scriptedHandler{
		fail: map[string]bool{flaky.ID: true, doomed.ID: true},
		seen: map[string]bool{},
		tx:   tx,
	}
	relay := NewRelay(tx, func(core.DBTX) Outbox { return box }, handler,
		config.OutboxConfig{BatchSize: 10, MaxAttempts: 3, BaseBackoff: 5 * time.Second},
	)
	relay.now = func() time.Time { return now }

	delivered, err := relay.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, delivered)
	assert.Equal(t, []string{ok.ID}, box.delivered)
	assert.Equal(t, now.Add(10*time.Second), box.retried[flaky.ID])
	assert.ElementsMatch(t, []string{doomed.ID, "broken"}, box.failed)

	assert.Equal(t, []string{ok.ID}, handler.fanout)
	assert.False(t, handler.fanoutInTx, "fan-out runs after commit")
}

func TestRelaySkipsFanoutForRedeliveries(t *testing.T) {
	ev := OrderStatusChanged("buyer", "seller", "o1", "p1", "Vase", "completed")
	box := &fakeOutbox{records: []OutboxRecord{record(t, ev, 0)}}
	handler := &scriptedHandler{seen: map[string]bool{ev.ID: true}}

	relay := NewRelay(&trackingTx{}, func(core.DBTX) Outbox { return box }, handler,
		config.OutboxConfig{BatchSize: 10, MaxAttempts: 3, BaseBackoff: time.Second},
	)

	delivered, err := relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Empty(t, handler.fanout)
}

func TestRelayDropsFanoutWhenCommitFails(t *testing.T) {
	ev := OrderStatusChanged("buyer", "seller", "o1", "p1", "Vase", "completed")
	box := &fakeOutbox{records: []OutboxRecord{record(t, ev, 0)}}
	handler := &scriptedHandler{seen: map[string]bool{}}

	relay := NewRelay(failingCommit{}, func(core.DBTX) Outbox { return box }, handler,
		config.OutboxConfig{BatchSize: 10, MaxAttempts: 3, BaseBackoff: time.Second},
	)

	_, err := relay.Drain(context.Background())
	require.Error(t, err)
	assert.Empty(t, handler.fanout)
}

type failingCommit struct{}

func (failingCommit) WithTx(_ context.Context, fn func(core.DBTX) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return errors.New("commit: connection reset")
}

func TestBackoffIsCapped(t *testing.T) {
	relay := NewRelay(&trackingTx{}, nil, nil, config.OutboxConfig{BaseBackoff: time.Second})
	assert.Equal(t, time.Second, relay.Backoff(0))
	assert.Equal(t, 8*time.Second, relay.Backoff(3))
	assert.Equal(t, time.Hour, relay.Backoff(40))
}
