package repo

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. It enforces the same uniqueness and overlap
// constraints as the Postgres schema. WithTx serializes on lock keys but does
// not roll back partial writes.
type Memory struct {
	mu sync.RWMutex

	users         map[uuid.UUID]User
	profiles      map[uuid.UUID]TherapistProfile
	windows       map[uuid.UUID]AvailabilityWindow
	sessionTypes  map[uuid.UUID]SessionType
	sessions      map[uuid.UUID]Session
	ratings       map[uuid.UUID]SessionRating
	cancellations map[uuid.UUID]SessionCancellation
	reminders     map[uuid.UUID]SessionReminder
	notes         map[uuid.UUID]SessionNote

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[uuid.UUID]User),
		profiles:      make(map[uuid.UUID]TherapistProfile),
		windows:       make(map[uuid.UUID]AvailabilityWindow),
		sessionTypes:  make(map[uuid.UUID]SessionType),
		sessions:      make(map[uuid.UUID]Session),
		ratings:       make(map[uuid.UUID]SessionRating),
		cancellations: make(map[uuid.UUID]SessionCancellation),
		reminders:     make(map[uuid.UUID]SessionReminder),
		notes:         make(map[uuid.UUID]SessionNote),
		locks:         make(map[string]*sync.Mutex),
	}
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// ---------------------------------------------------------------------------
// users & therapists
// ---------------------------------------------------------------------------

func (m *Memory) UpsertUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UpsertTherapistProfile(_ context.Context, p *TherapistProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.UserID]; !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	if prev, ok := m.profiles[p.UserID]; ok {
		p.CreatedAt = prev.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	cp.Specializations = slices.Clone(p.Specializations)
	m.profiles[p.UserID] = cp
	return nil
}

func (m *Memory) GetTherapist(_ context.Context, id uuid.UUID) (*Therapist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.therapistLocked(id)
}

func (m *Memory) therapistLocked(id uuid.UUID) (*Therapist, error) {
	u, ok := m.users[id]
	if !ok || u.Role != RoleTherapist {
		return nil, ErrNotFound
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Specializations = slices.Clone(p.Specializations)
	return &Therapist{User: u, Profile: p}, nil
}

func (m *Memory) ListTherapists(_ context.Context, f TherapistFilter) ([]*Therapist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Therapist
	for id := range m.profiles {
		t, err := m.therapistLocked(id)
		if err != nil || !t.IsActive {
			continue
		}
		if f.AcceptingOnly && !t.Profile.IsAccepting {
			continue
		}
		if f.Specialization != "" && !containsFold(t.Profile.Specializations, f.Specialization) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.FullName), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return paginate(out, f.Page), nil
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func paginate[T any](in []T, p Page) []T {
	limit, offset := p.Normalize()
	if offset >= len(in) {
		return nil
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}

// ---------------------------------------------------------------------------
// availability
// ---------------------------------------------------------------------------

func (m *Memory) CreateWindow(_ context.Context, w *AvailabilityWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkWindowUnique(w); err != nil {
		return err
	}
	if w.ID == uuid.Nil {
		w.ID = newID()
	}
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	m.windows[w.ID] = *w
	return nil
}

func (m *Memory) checkWindowUnique(w *AvailabilityWindow) error {
	for _, o := range m.windows {
		if o.ID != w.ID && o.TherapistID == w.TherapistID &&
			o.DayOfWeek == w.DayOfWeek && o.StartTime == w.StartTime {
			return ErrDuplicate
		}
	}
	return nil
}

func (m *Memory) GetWindow(_ context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.windows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (m *Memory) UpdateWindow(_ context.Context, w *AvailabilityWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.windows[w.ID]
	if !ok {
		return ErrNotFound
	}
	if err := m.checkWindowUnique(w); err != nil {
		return err
	}
	w.CreatedAt = prev.CreatedAt
	w.UpdatedAt = time.Now().UTC()
	m.windows[w.ID] = *w
	return nil
}

func (m *Memory) DeleteWindow(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.windows[id]; !ok {
		return ErrNotFound
	}
	delete(m.windows, id)
	return nil
}

func (m *Memory) ListWindows(_ context.Context, f WindowFilter) ([]*AvailabilityWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*AvailabilityWindow
	for _, w := range m.windows {
		if w.TherapistID != f.TherapistID {
			continue
		}
		if f.DayOfWeek != nil && w.DayOfWeek != *f.DayOfWeek {
			continue
		}
		if f.ActiveOnly && !w.IsActive {
			continue
		}
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return weekdayIndex(out[i].DayOfWeek) < weekdayIndex(out[j].DayOfWeek)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func weekdayIndex(w Weekday) int {
	for d, v := range weekdays {
		if v == w {
			// monday first
			return (int(d) + 6) % 7
		}
	}
	return 7
}

// ---------------------------------------------------------------------------
// catalog
// ---------------------------------------------------------------------------

func (m *Memory) UpsertSessionType(_ context.Context, st *SessionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.ID == uuid.Nil {
		for _, o := range m.sessionTypes {
			if o.Name == st.Name {
				st.ID = o.ID
				st.CreatedAt = o.CreatedAt
			}
		}
	}
	if st.ID == uuid.Nil {
		st.ID = newID()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	m.sessionTypes[st.ID] = *st
	return nil
}

func (m *Memory) GetSessionType(_ context.Context, id uuid.UUID) (*SessionType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessionTypes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

func (m *Memory) ListSessionTypes(_ context.Context, activeOnly bool) ([]*SessionType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*SessionType
	for _, st := range m.sessionTypes {
		if activeOnly && !st.IsActive {
			continue
		}
		st := st
		out = append(out, &st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---------------------------------------------------------------------------
// sessions
// ---------------------------------------------------------------------------

func (m *Memory) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = newID()
	}
	if err := m.checkSessionConstraints(s); err != nil {
		return err
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.sessions[s.ID] = *s
	return nil
}

// checkSessionConstraints mirrors sessions_no_overlap and sessions_open_unique.
func (m *Memory) checkSessionConstraints(s *Session) error {
	open := !s.Status.IsTerminal()
	for _, o := range m.sessions {
		if o.ID == s.ID || o.TherapistID != s.TherapistID || !o.ScheduledDate.Equal(s.ScheduledDate) {
			continue
		}
		if open && !o.Status.IsTerminal() && o.ClientID == s.ClientID && o.StartTime == s.StartTime {
			return ErrDuplicate
		}
		if s.Status.IsBusy() && o.Status.IsBusy() &&
			s.StartTime < o.EndTime() && o.StartTime < s.EndTime() {
			return ErrConflict
		}
	}
	return nil
}

func (m *Memory) GetSession(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) UpdateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if err := m.checkSessionConstraints(s); err != nil {
		return err
	}
	s.CreatedAt = prev.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	m.sessions[s.ID] = *s
	return nil
}

func (m *Memory) ListSessions(_ context.Context, f SessionFilter) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if f.ClientID != nil && s.ClientID != *f.ClientID {
			continue
		}
		if f.TherapistID != nil && s.TherapistID != *f.TherapistID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, s.Status) {
			continue
		}
		if f.DateFrom != nil && s.ScheduledDate.Before(DateOf(*f.DateFrom)) {
			continue
		}
		if f.DateTo != nil && s.ScheduledDate.After(DateOf(*f.DateTo)) {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate) {
			return a.ScheduledDate.Before(b.ScheduledDate) != f.Newest
		}
		if a.StartTime != b.StartTime {
			return (a.StartTime < b.StartTime) != f.Newest
		}
		return a.ID.String() < b.ID.String()
	})
	if f.Unpaged {
		return out, nil
	}
	return paginate(out, f.Page), nil
}

func (m *Memory) CountSessionsByStatus(_ context.Context, therapistID uuid.UUID) (map[SessionStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[SessionStatus]int)
	for _, s := range m.sessions {
		if s.TherapistID == therapistID {
			out[s.Status]++
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// ratings, cancellations, notes
// ---------------------------------------------------------------------------

func (m *Memory) CreateRating(_ context.Context, r *SessionRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.ratings {
		if o.SessionID == r.SessionID {
			return ErrDuplicate
		}
	}
	if r.ID == uuid.Nil {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.ratings[r.ID] = *r
	return nil
}

func (m *Memory) GetRatingBySession(_ context.Context, sessionID uuid.UUID) (*SessionRating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.ratings {
		if r.SessionID == sessionID {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListRatings(_ context.Context, f RatingFilter) ([]*SessionRating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*SessionRating
	for _, r := range m.ratings {
		if f.TherapistID != nil && r.TherapistID != *f.TherapistID {
			continue
		}
		if f.ClientID != nil && r.ClientID != *f.ClientID {
			continue
		}
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) CreateCancellation(_ context.Context, c *SessionCancellation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.cancellations[c.ID] = *c
	return nil
}

func (m *Memory) ListCancellations(_ context.Context, sessionID uuid.UUID) ([]*SessionCancellation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*SessionCancellation
	for _, c := range m.cancellations {
		if c.SessionID == sessionID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateNote(_ context.Context, n *SessionNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = newID()
	}
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	m.notes[n.ID] = *n
	return nil
}

func (m *Memory) ListNotes(_ context.Context, f NoteFilter) ([]*SessionNote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*SessionNote
	for _, n := range m.notes {
		if n.SessionID != f.SessionID || (n.IsPrivate && !f.IncludePrivate) {
			continue
		}
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// reminders
// ---------------------------------------------------------------------------

func (m *Memory) CreateReminder(_ context.Context, r *SessionReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.reminders[r.ID] = *r
	return nil
}

func (m *Memory) ListReminders(_ context.Context, sessionID uuid.UUID) ([]*SessionReminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*SessionReminder
	for _, r := range m.reminders {
		if r.SessionID == sessionID {
			r := r
			out = append(out, &r)
		}
	}
	sortReminders(out)
	return out, nil
}

func (m *Memory) ListDueReminders(_ context.Context, now time.Time, maxAttempts, limit int) ([]*SessionReminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*SessionReminder
	for _, r := range m.reminders {
		if r.IsSent || r.ScheduledTime.After(now) {
			continue
		}
		if r.ClaimedUntil != nil && r.ClaimedUntil.After(now) {
			continue
		}
		if maxAttempts > 0 && r.Attempts >= maxAttempts {
			continue
		}
		r := r
		out = append(out, &r)
	}
	sortReminders(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortReminders(rs []*SessionReminder) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].ScheduledTime.Equal(rs[j].ScheduledTime) {
			return rs[i].ScheduledTime.Before(rs[j].ScheduledTime)
		}
		return rs[i].ID.String() < rs[j].ID.String()
	})
}

func (m *Memory) UpdateReminder(_ context.Context, r *SessionReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reminders[r.ID]; !ok {
		return ErrNotFound
	}
	m.reminders[r.ID] = *r
	return nil
}

func (m *Memory) DeleteUnsentReminders(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reminders {
		if r.SessionID == sessionID && !r.IsSent {
			delete(m.reminders, id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// transactions
// ---------------------------------------------------------------------------

func (m *Memory) WithTx(ctx context.Context, lockKeys []string, fn func(tx Store) error) error {
	keys := slices.Clone(lockKeys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	for _, k := range keys {
		l := m.keyLock(k)
		l.Lock()
		defer l.Unlock()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(m)
}

func (m *Memory) keyLock(key string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}
