package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"order-insights/internal/models"
	"order-insights/internal/service"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	held     bool
	err      error
	acquired int
	released int
	lastTTL  time.Duration
}

func (l *fakeLocker) AcquireLock(_ context.Context, _ string, ttl time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.lastTTL = ttl
	if l.held {
		return false, nil
	}
	l.acquired++
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, _ string) error {
	l.released++
	return nil
}

type countingPoller struct {
	calls int
	err   error
}

func (p *countingPoller) PollOnce(_ context.Context) (service.PollResult, error) {
	p.calls++
	return service.PollResult{}, p.err
}

func TestRunOnceHoldsLock(t *testing.T) {
	locker := &fakeLocker{}
	poller := &countingPoller{}
	pw := NewPollWorker(poller, locker, time.Minute)

	assert.True(t, pw.RunOnce(context.Background()))
	assert.Equal(t, 1, poller.calls)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
	assert.Equal(t, time.Minute, locker.lastTTL)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	locker := &fakeLocker{held: true}
	poller := &countingPoller{}
	pw := NewPollWorker(poller, locker, time.Minute)

	assert.False(t, pw.RunOnce(context.Background()))
	assert.Equal(t, 0, poller.calls)
	assert.Equal(t, 0, locker.released)
}

func TestRunOnceLockError(t *testing.T) {
	locker := &fakeLocker{err: errors.New("redis down")}
	poller := &countingPoller{}
	pw := NewPollWorker(poller, locker, time.Minute)

	assert.False(t, pw.RunOnce(context.Background()))
	assert.Equal(t, 0, poller.calls)
}

func TestRunOnceReleasesAfterPollError(t *testing.T) {
	locker := &fakeLocker{}
	poller := &countingPoller{err: errors.New("list failed")}
	pw := NewPollWorker(poller, locker, time.Minute)

	assert.True(t, pw.RunOnce(context.Background()))
	assert.Equal(t, 1, locker.released)
}

func TestStartStopsOnCancel(t *testing.T) {
	locker := &fakeLocker{}
	poller := &countingPoller{}
	pw := NewPollWorker(poller, locker, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, pw.Start(ctx))
	assert.Equal(t, 1, poller.calls)
}

type memSignalStore struct {
	partner   map[string]string
	processed map[string]bool
}

func (m *memSignalStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return m.processed[eventID], nil
}

func (m *memSignalStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	m.processed[eventID] = true
	return nil
}

func (m *memSignalStore) SetWebhookStatusByAWB(context.Context, string, string) error { return nil }
func (m *memSignalStore) SetPolledStatus(context.Context, string, string) error { return nil }
func (m *memSignalStore) SetAWB(context.Context, string, string) error { return nil }

func (m *memSignalStore) SetPartnerStatus(_ context.Context, orderID, status string) error {
	m.partner[orderID] = status
	return nil
}

func TestSignalRouterAppliesPartnerStatus(t *testing.T) {
	st := &memSignalStore{partner: map[string]string{}, processed: map[string]bool{}}
	router := NewSignalRouter(service.NewSignalService(st))

	payload, err := json.Marshal(models.PartnerStatusEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypePartnerStatus},
		OrderID:   "1001",
		Status:    "DELIVERED",
	})
	require.NoError(t, err)

	require.NoError(t, router.HandleMessage(context.Background(), kafka.Message{Value: payload}))
	assert.Equal(t, "DELIVERED", st.partner["1001"])
	assert.True(t, st.processed["e1"])
}
