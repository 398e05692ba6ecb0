package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/repo/repotest"
	"github.com/Alijeyrad/simorq_sessions/internal/service/stats"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
)

func newService(store *repo.Memory) Service {
	return New(store, stats.New(store, clock.SystemClock{}, nil))
}

func TestSessionTypes(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	svc := newService(store)

	tests := []struct {
		name    string
		req     SessionTypeRequest
		wantErr error
	}{
		{"valid", SessionTypeRequest{Name: "Couples", DurationMinutes: 90, Price: 1_500_000, IsActive: true}, nil},
		{"blank name", SessionTypeRequest{Name: "  ", DurationMinutes: 60}, ErrInvalidSessionType},
		{"zero duration", SessionTypeRequest{Name: "Quick"}, ErrInvalidSessionType},
		{"negative price", SessionTypeRequest{Name: "Odd", DurationMinutes: 30, Price: -1}, ErrInvalidSessionType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpsertSessionType(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err := svc.UpsertSessionType(ctx, SessionTypeRequest{Name: "Retired", DurationMinutes: 45, Price: 10})
	require.NoError(t, err)

	active, err := svc.ListSessionTypes(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Couples", active[0].Name)

	all, err := svc.ListSessionTypes(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// same name updates in place
	updated, err := svc.UpsertSessionType(ctx, SessionTypeRequest{Name: "Couples", DurationMinutes: 120, Price: 2_000_000, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, active[0].ID, updated.ID)

	_, err = svc.GetSessionType(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionTypeNotFound)
}

func TestListTherapists(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	svc := newService(store)

	a := repotest.Therapist(t, store, "Dr. Ahmadi", "Anxiety", "Depression")
	b := repotest.Therapist(t, store, "Dr. Bahrami", "couples")
	p := b.Profile
	p.IsAccepting = false
	require.NoError(t, store.UpsertTherapistProfile(ctx, &p))

	tests := []struct {
		name   string
		filter repo.TherapistFilter
		want   []uuid.UUID
	}{
		{"all", repo.TherapistFilter{}, []uuid.UUID{a.ID, b.ID}},
		{"specialization is case insensitive", repo.TherapistFilter{Specialization: " anxiety "}, []uuid.UUID{a.ID}},
		{"accepting only", repo.TherapistFilter{AcceptingOnly: true}, []uuid.UUID{a.ID}},
		{"search by name", repo.TherapistFilter{Search: "bahr"}, []uuid.UUID{b.ID}},
		{"second page", repo.TherapistFilter{Page: repo.Page{Page: 2, PerPage: 1}}, []uuid.UUID{b.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.ListTherapists(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]uuid.UUID, 0, len(list))
			for _, th := range list {
				ids = append(ids, th.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGetTherapistDetail(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	svc := newService(store)

	th := repotest.Therapist(t, store, "Dr. Ahmadi", "anxiety")
	repotest.SessionType(t, store, "Individual", 60, 1_000_000)

	d, err := svc.GetTherapistDetail(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ahmadi", d.FullName)
	assert.Equal(t, 0.0, d.Stats.AverageRating)
	assert.Len(t, d.Distribution.Buckets, 5)
	assert.Len(t, d.SessionTypes, 1)

	client := repotest.Client(t, store, "Sara")
	_, err = svc.GetTherapistDetail(ctx, client.ID)
	assert.ErrorIs(t, err, ErrTherapistNotFound)
	_, err = svc.GetTherapist(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTherapistNotFound)
}

func TestUpsertProfile(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	svc := newService(store)

	u := repotest.Client(t, store, "Mina")
	th, err := svc.UpsertProfile(ctx, ProfileRequest{
		UserID:          u.ID,
		Specializations: []string{" trauma ", ""},
		HourlyRate:      700_000,
		IsAccepting:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, repo.RoleTherapist, th.Role)
	assert.Equal(t, []string{"trauma"}, th.Profile.Specializations)

	_, err = svc.UpsertProfile(ctx, ProfileRequest{UserID: u.ID, HourlyRate: -1})
	assert.ErrorIs(t, err, ErrInvalidProfile)
	_, err = svc.UpsertProfile(ctx, ProfileRequest{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrTherapistNotFound)
}
