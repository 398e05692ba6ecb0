package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
)

func TestApplyDefault(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()

	f, err := Default()
	require.NoError(t, err)

	res, err := Apply(ctx, store, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Therapists: 2, SessionTypes: 3, Windows: 4}, res)

	th, err := store.GetTherapist(ctx, f.Therapists[0].ID)
	require.NoError(t, err)
	assert.Equal(t, repo.RoleTherapist, th.Role)
	assert.Equal(t, []string{"anxiety", "depression"}, th.Profile.Specializations)

	windows, err := store.ListWindows(ctx, repo.WindowFilter{TherapistID: th.ID})
	require.NoError(t, err)
	require.Len(t, windows, 2)

	// re-applying updates in place
	res, err = Apply(ctx, store, f)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Windows)

	types, err := store.ListSessionTypes(ctx, true)
	require.NoError(t, err)
	assert.Len(t, types, 3)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown role",
			doc: `users:
  - id: 0a9c6f1e-7d6b-4f3a-9b1e-1f5c2d3e4a01
    full_name: x
    role: owner`,
			want: "unknown role",
		},
		{
			name: "inverted window",
			doc: `therapists:
  - id: 0a9c6f1e-7d6b-4f3a-9b1e-1f5c2d3e4b01
    full_name: x
    windows:
      - {day: monday, start: "12:00", end: "09:00"}`,
			want: "ends before it starts",
		},
		{
			name: "bad day",
			doc: `therapists:
  - id: 0a9c6f1e-7d6b-4f3a-9b1e-1f5c2d3e4b01
    full_name: x
    windows:
      - {day: someday, start: "09:00", end: "12:00"}`,
			want: "unknown day",
		},
		{
			name: "missing id",
			doc: `session_types:
  - name: x
    duration_minutes: 60`,
			want: "needs an id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(strings.NewReader(tt.doc))
			require.NoError(t, err)
			_, err = Apply(context.Background(), repo.NewMemory(), f)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(strings.NewReader("users: [\n"))
	assert.Error(t, err)
}
