// Package repotest seeds a repo.Store with fixtures for service tests.
package repotest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
)

func Client(t testing.TB, store repo.Store, name string) *repo.User {
	t.Helper()
	u := &repo.User{
		FullName: name,
		Role:     repo.RoleClient,
		Phone:    "+989121234567",
		Email:    "client@example.com",
		IsActive: true,
	}
	require.NoError(t, store.UpsertUser(context.Background(), u))
	return u
}

func Therapist(t testing.TB, store repo.Store, name string, specializations ...string) *repo.Therapist {
	t.Helper()
	ctx := context.Background()
	u := &repo.User{
		FullName: name,
		Role:     repo.RoleTherapist,
		Phone:    "+989351234567",
		Email:    "therapist@example.com",
		IsActive: true,
	}
	require.NoError(t, store.UpsertUser(ctx, u))
	p := &repo.TherapistProfile{
		UserID:          u.ID,
		Specializations: specializations,
		HourlyRate:      800000,
		IsAccepting:     true,
		YearsExperience: 5,
	}
	require.NoError(t, store.UpsertTherapistProfile(ctx, p))
	th, err := store.GetTherapist(ctx, u.ID)
	require.NoError(t, err)
	return th
}

func SessionType(t testing.TB, store repo.Store, name string, minutes int, price int64) *repo.SessionType {
	t.Helper()
	st := &repo.SessionType{
		Name:            name,
		DurationMinutes: minutes,
		Price:           price,
		IsActive:        true,
	}
	require.NoError(t, store.UpsertSessionType(context.Background(), st))
	return st
}

func Window(t testing.TB, store repo.Store, therapistID uuid.UUID, day repo.Weekday, start, end string) *repo.AvailabilityWindow {
	t.Helper()
	s, err := repo.ParseTimeOfDay(start)
	require.NoError(t, err)
	e, err := repo.ParseTimeOfDay(end)
	require.NoError(t, err)
	w := &repo.AvailabilityWindow{
		TherapistID: therapistID,
		DayOfWeek:   day,
		StartTime:   s,
		EndTime:     e,
		IsActive:    true,
	}
	require.NoError(t, store.CreateWindow(context.Background(), w))
	return w
}
