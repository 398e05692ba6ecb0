package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
	"github.com/Alijeyrad/simorq_sessions/pkg/email"
	"github.com/Alijeyrad/simorq_sessions/pkg/events"
	"github.com/Alijeyrad/simorq_sessions/pkg/sms"
)

type fakeSMS struct {
	mu    sync.Mutex
	sent  []sms.ReminderParams
	phone []string
	err   error
}

func (f *fakeSMS) SendReminder(_ context.Context, phone string, p sms.ReminderParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.phone = append(f.phone, phone)
	f.sent = append(f.sent, p)
	return nil
}

type fakeEmail struct {
	sent []email.ReminderEmailData
}

func (f *fakeEmail) SendSessionReminder(_ context.Context, d email.ReminderEmailData) error {
	f.sent = append(f.sent, d)
	return nil
}

type countingMetrics struct {
	outcomes map[string]int
}

func (m *countingMetrics) ReminderDispatched(_ context.Context, typ, outcome string) {
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[typ+":"+outcome]++
}

// txStore applies reminder updates only when the transaction succeeds, like
// the Postgres store does.
type txStore struct {
	*repo.Memory
}

type bufferedTx struct {
	*repo.Memory
	updates []repo.SessionReminder
}

func (b *bufferedTx) UpdateReminder(_ context.Context, r *repo.SessionReminder) error {
	b.updates = append(b.updates, *r)
	return nil
}

func (s txStore) WithTx(ctx context.Context, keys []string, fn func(tx repo.Store) error) error {
	buf := &bufferedTx{Memory: s.Memory}
	if err := s.Memory.WithTx(ctx, keys, func(repo.Store) error { return fn(buf) }); err != nil {
		return err
	}
	for i := range buf.updates {
		if err := s.Memory.UpdateReminder(ctx, &buf.updates[i]); err != nil {
			return err
		}
	}
	return nil
}

func TestDispatchDue(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	sess := seedSession(t, store, repo.StatusConfirmed)

	clk := clock.NewFixed(time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC))
	cfg := remindersConfig()
	require.NoError(t, New(store, clk, cfg, tehran).PlanDefaults(ctx, store, sess))

	smsClient, emailClient := &fakeSMS{}, &fakeEmail{}
	metrics := &countingMetrics{}
	d := NewDispatcher(store, Senders(smsClient, emailClient, nil, "en"), clk, cfg, tehran, metrics)

	res, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res, "nothing due yet")

	clk.Set(time.Date(2024, 5, 5, 7, 0, 0, 0, time.UTC))
	res, err = d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2}, res)

	require.Len(t, smsClient.sent, 1)
	assert.Equal(t, "+989121234567", smsClient.phone[0])
	assert.Equal(t, sms.ReminderParams{Name: "Sara", Therapist: "Dr. Rahimi", Date: "1403/02/17", Time: "10:00"}, smsClient.sent[0])
	require.Len(t, emailClient.sent, 1)
	assert.Equal(t, "https://meet.example.com/abcd", emailClient.sent[0].MeetingLink)

	// sent reminders are not picked up again
	res, err = d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	list, err := store.ListReminders(ctx, sess.ID)
	require.NoError(t, err)
	var sent int
	for _, r := range list {
		if r.IsSent {
			sent++
			require.NotNil(t, r.SentAt)
			assert.Equal(t, 1, r.Attempts)
		}
	}
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, metrics.outcomes["sms:sent"])
	assert.Equal(t, 1, metrics.outcomes["email:sent"])
}

func TestDispatchDue_FailuresAndGiveUp(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	sess := seedSession(t, store, repo.StatusScheduled)

	clk := clock.NewFixed(time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC))
	cfg := remindersConfig()
	cfg.Types = []string{"sms"}
	cfg.OffsetsMinutes = []int{60}
	require.NoError(t, New(store, clk, cfg, tehran).PlanDefaults(ctx, store, sess))
	clk.Set(time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC))

	smsClient := &fakeSMS{err: errors.New("gateway down")}
	metrics := &countingMetrics{}
	d := NewDispatcher(store, Senders(smsClient, nil, nil, "en"), clk, cfg, tehran, metrics)

	for i := 0; i < cfg.MaxAttempts; i++ {
		res, err := d.DispatchDue(ctx)
		require.NoError(t, err)
		assert.Equal(t, Result{Failed: 1}, res)
	}

	// exhausted reminders are no longer due
	res, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	list, err := store.ListReminders(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsSent)
	assert.Equal(t, cfg.MaxAttempts, list[0].Attempts)
	assert.Equal(t, "gateway down", list[0].LastError)
	assert.Equal(t, 2, metrics.outcomes["sms:failed"])
	assert.Equal(t, 1, metrics.outcomes["sms:gave_up"])
}

func TestDispatchDue_InactiveSessionSkipped(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	sess := seedSession(t, store, repo.StatusConfirmed)

	clk := clock.NewFixed(time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC))
	cfg := remindersConfig()
	cfg.Types = []string{"push"}
	require.NoError(t, New(store, clk, cfg, tehran).PlanDefaults(ctx, store, sess))

	sess.Status = repo.StatusCancelled
	require.NoError(t, store.UpdateSession(ctx, sess))
	clk.Set(time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC))

	var rec events.Recorder
	d := NewDispatcher(store, Senders(nil, nil, &rec, "en"), clk, cfg, tehran, nil)
	res, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 2}, res)
	assert.Empty(t, rec.Messages())

	list, err := store.ListReminders(ctx, sess.ID)
	require.NoError(t, err)
	for _, r := range list {
		assert.True(t, r.IsSent)
		assert.Equal(t, 0, r.Attempts)
	}
}

func TestDispatchDue_Push(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	sess := seedSession(t, store, repo.StatusConfirmed)

	clk := clock.NewFixed(time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC))
	cfg := remindersConfig()
	cfg.Types = []string{"push", "email"}
	cfg.OffsetsMinutes = []int{60}
	require.NoError(t, New(store, clk, cfg, tehran).PlanDefaults(ctx, store, sess))
	clk.Set(time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC))

	var rec events.Recorder
	d := NewDispatcher(store, Senders(nil, nil, &rec, "en"), clk, cfg, tehran, nil)
	res, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 1}, res, "email has no sender")

	require.Equal(t, []string{events.SubjectReminderPush}, rec.Subjects())
	var push events.ReminderPush
	require.NoError(t, rec.Messages()[0].Decode(&push))
	assert.Equal(t, sess.ID, push.SessionID)
	assert.Equal(t, sess.ClientID, push.UserID)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	store := repo.NewMemory()
	cfg := remindersConfig()
	d := NewDispatcher(store, nil, clock.NewFixed(time.Now()), cfg, tehran, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestDispatchDue_CancelKeepsDelivered(t *testing.T) {
	mem := repo.NewMemory()
	store := txStore{Memory: mem}
	sess := seedSession(t, mem, repo.StatusConfirmed)

	clk := clock.NewFixed(time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC))
	cfg := remindersConfig()
	cfg.OffsetsMinutes = []int{60}
	require.NoError(t, New(mem, clk, cfg, tehran).PlanDefaults(context.Background(), mem, sess))
	clk.Set(time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var delivered []repo.ReminderType
	send := SenderFunc(func(_ context.Context, d Delivery) error {
		delivered = append(delivered, d.Reminder.Type)
		cancel()
		return nil
	})
	senders := map[repo.ReminderType]Sender{repo.ReminderSMS: send, repo.ReminderEmail: send}
	d := NewDispatcher(store, senders, clk, cfg, tehran, nil)

	res, err := d.DispatchDue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Result{Sent: 1}, res)
	require.Len(t, delivered, 1)

	list, err := mem.ListReminders(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, r := range list {
		assert.Nil(t, r.ClaimedUntil, "claims are released")
		assert.Equal(t, r.Type == delivered[0], r.IsSent)
	}

	// the next poll delivers only the remaining reminder
	res, err = d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1}, res)
	require.Len(t, delivered, 2)
	assert.NotEqual(t, delivered[0], delivered[1])
}

// flakyStore fails user lookups once broken is set.
type flakyStore struct {
	txStore
	broken bool
}

func (s *flakyStore) GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	if s.broken {
		return nil, errors.New("connection reset")
	}
	return s.txStore.GetUser(ctx, id)
}

func TestDispatchDue_StoreFailureKeepsDelivered(t *testing.T) {
	ctx := context.Background()
	mem := repo.NewMemory()
	store := &flakyStore{txStore: txStore{Memory: mem}}
	sess := seedSession(t, mem, repo.StatusConfirmed)

	clk := clock.NewFixed(time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC))
	cfg := remindersConfig()
	cfg.OffsetsMinutes = []int{60}
	require.NoError(t, New(mem, clk, cfg, tehran).PlanDefaults(ctx, mem, sess))
	clk.Set(time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC))

	var delivered int
	send := SenderFunc(func(context.Context, Delivery) error {
		delivered++
		store.broken = true
		return nil
	})
	senders := map[repo.ReminderType]Sender{repo.ReminderSMS: send, repo.ReminderEmail: send}
	d := NewDispatcher(store, senders, clk, cfg, tehran, nil)

	res, err := d.DispatchDue(ctx)
	require.Error(t, err)
	assert.Equal(t, Result{Sent: 1}, res)
	assert.Equal(t, 1, delivered)

	list, err := mem.ListReminders(ctx, sess.ID)
	require.NoError(t, err)
	var sent int
	for _, r := range list {
		if r.IsSent {
			sent++
		}
		assert.Nil(t, r.ClaimedUntil)
	}
	assert.Equal(t, 1, sent)

	store.broken = false
	res, err = d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1}, res)
	assert.Equal(t, 2, delivered)
}

func TestDispatchDue_ClaimHidesBatch(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	sess := seedSession(t, store, repo.StatusConfirmed)

	clk := clock.NewFixed(time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC))
	cfg := remindersConfig()
	cfg.Types = []string{"sms"}
	cfg.OffsetsMinutes = []int{60}
	cfg.ClaimLeaseSec = 120
	require.NoError(t, New(store, clk, cfg, tehran).PlanDefaults(ctx, store, sess))
	clk.Set(time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC))

	smsClient := &fakeSMS{}
	first := NewDispatcher(store, Senders(smsClient, nil, nil, "en"), clk, cfg, tehran, nil)
	claimed, err := first.claim(ctx)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	second := NewDispatcher(store, Senders(smsClient, nil, nil, "en"), clk, cfg, tehran, nil)
	res, err := second.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res, "claimed by another dispatcher")

	clk.Advance(3 * time.Minute)
	res, err = second.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1}, res, "lease expired")
	assert.Len(t, smsClient.sent, 1)
}
