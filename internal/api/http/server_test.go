package http

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/internal/api/http/middleware"
	"github.com/Alijeyrad/simorq_sessions/internal/api/http/router"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/repo/repotest"
	"github.com/Alijeyrad/simorq_sessions/internal/service/availability"
	"github.com/Alijeyrad/simorq_sessions/internal/service/booking"
	"github.com/Alijeyrad/simorq_sessions/internal/service/catalog"
	"github.com/Alijeyrad/simorq_sessions/internal/service/reminder"
	"github.com/Alijeyrad/simorq_sessions/internal/service/slots"
	"github.com/Alijeyrad/simorq_sessions/internal/service/stats"
	"github.com/Alijeyrad/simorq_sessions/pkg/authorize"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
	"github.com/Alijeyrad/simorq_sessions/pkg/meeting"
	pasetotoken "github.com/Alijeyrad/simorq_sessions/pkg/paseto"
)

type apiFixture struct {
	app         *fiber.App
	store       *repo.Memory
	therapist   *repo.Therapist
	client      *repo.User
	sessionType *repo.SessionType
	tokens      map[string]string
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := repo.NewMemory()
	// Wednesday 2024-05-01 09:00 Tehran
	clk := clock.NewFixed(time.Date(2024, 5, 1, 5, 30, 0, 0, time.UTC))

	cfg := &config.Config{}
	cfg.Scheduling = config.SchedulingConfig{Timezone: "Asia/Tehran", SlotMinutes: 60, MaxBookingDaysOut: 60}
	cfg.Booking = config.BookingConfig{FullRefundHours: 24, PartialRefundHours: 2, PartialRefundPercent: 50}
	loc := cfg.Scheduling.Location()

	slotSvc := slots.New(store, nil, cfg.Scheduling)
	statsSvc := stats.New(store, clk, loc)
	reminderSvc := reminder.New(store, clk, cfg.Reminders, loc)
	bookingSvc := booking.New(booking.Deps{
		Store:      store,
		Clock:      clk,
		Meetings:   meeting.NewRandomProvisioner("https://meet.example.com", nil),
		Reminders:  reminderSvc,
		Slots:      slotSvc,
		Booking:    cfg.Booking,
		Scheduling: cfg.Scheduling,
	})

	enforcer, err := authorize.NewEnforcer(authorize.Config{})
	require.NoError(t, err)
	authz, err := authorize.New(enforcer, authorize.Config{})
	require.NoError(t, err)

	keys := pasetotoken.NewLocalKeys()
	mgr, err := pasetotoken.New(pasetotoken.Config{Mode: keys.Mode, Issuer: "simorq", Audience: "sessions", AccessTTL: time.Hour}, keys)
	require.NoError(t, err)

	app := NewApp()
	app.Use(middleware.RequestID())
	router.NewRouter(router.Params{
		Cfg:             cfg,
		Auth:            authz,
		PasetoMgr:       mgr,
		CatalogSvc:      catalog.New(store, statsSvc),
		StatsSvc:        statsSvc,
		SlotSvc:         slotSvc,
		AvailabilitySvc: availability.New(store, slotSvc),
		BookingSvc:      bookingSvc,
		ReminderSvc:     reminderSvc,
	}).Register(app)

	f := &apiFixture{
		app:         app,
		store:       store,
		therapist:   repotest.Therapist(t, store, "Dr. Ahmadi", "anxiety"),
		client:      repotest.Client(t, store, "Sara"),
		sessionType: repotest.SessionType(t, store, "Individual", 60, 1_000_000),
		tokens:      map[string]string{},
	}
	other := repotest.Client(t, store, "Reza")
	repotest.Window(t, store, f.therapist.ID, repo.Monday, "09:00", "12:00")

	issue := func(name string, u *repo.User) {
		tok, _, err := mgr.Issue(u.ID, string(u.Role))
		require.NoError(t, err)
		f.tokens[name] = tok
	}
	issue("client", f.client)
	issue("other", other)
	issue("therapist", &f.therapist.User)
	return f
}

// do sends a request as the named caller ("" for anonymous).
func (f *apiFixture) do(t *testing.T, method, path, as string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if as != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+f.tokens[as])
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (f *apiFixture) bookingBody(date, start string) map[string]any {
	return map[string]any{
		"therapist_id":    f.therapist.ID,
		"session_type_id": f.sessionType.ID,
		"date":            date,
		"time":            start,
	}
}

func TestAvailability(t *testing.T) {
	f := newAPIFixture(t)
	base := "/api/v1/therapists/" + f.therapist.ID.String() + "/availability?date="

	for _, date := range []string{"2024-05-06", "1403/02/17"} {
		t.Run(date, func(t *testing.T) {
			status, env := f.do(t, fiber.MethodGet, base+date, "", nil)
			require.Equal(t, fiber.StatusOK, status)

			var day slots.DaySlots
			require.NoError(t, json.Unmarshal(env.Data, &day))
			assert.Equal(t, "2024-05-06", day.Date)
			labels := []string{}
			for _, s := range day.Slots {
				labels = append(labels, s.Label)
			}
			assert.Equal(t, []string{"09:00", "10:00", "11:00"}, labels)
		})
	}

	status, env := f.do(t, fiber.MethodGet, base+"next-monday", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation", env.Code)
}

func TestBookingFlow(t *testing.T) {
	f := newAPIFixture(t)

	status, env := f.do(t, fiber.MethodPost, "/api/v1/sessions/requests", "", f.bookingBody("2024-05-06", "10:00"))
	require.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", env.Code)

	status, env = f.do(t, fiber.MethodPost, "/api/v1/sessions/requests", "client", f.bookingBody("2024-05-06", "10:00"))
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var sess repo.Session
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Equal(t, repo.StatusPending, sess.Status)
	assert.Equal(t, f.client.ID, sess.ClientID)
	path := "/api/v1/sessions/" + sess.ID.String()

	// clients cannot confirm, and strangers cannot read
	status, env = f.do(t, fiber.MethodPatch, path+"/confirm", "client", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "forbidden", env.Code)
	status, _ = f.do(t, fiber.MethodGet, path, "other", nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = f.do(t, fiber.MethodPatch, path+"/confirm", "therapist", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Equal(t, repo.StatusConfirmed, sess.Status)

	status, env = f.do(t, fiber.MethodPost, "/api/v1/sessions/requests", "other", f.bookingBody("2024-05-06", "10:30"))
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "slot_unavailable", env.Code)

	status, env = f.do(t, fiber.MethodPatch, path+"/confirm", "therapist", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "invalid_transition", env.Code)

	status, env = f.do(t, fiber.MethodPatch, path+"/cancel", "client", map[string]any{"reason": "client_request"})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	var c repo.SessionCancellation
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Equal(t, "full", c.RefundPolicy)
	assert.Equal(t, int64(1_000_000), c.RefundAmount)

	status, env = f.do(t, fiber.MethodGet, "/api/v1/sessions?status=cancelled", "client", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []repo.Session
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].ID)
}

func TestErrorMapping(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		as     string
		body   any
		status int
		code   string
	}{
		{
			name: "unknown session", method: fiber.MethodGet, as: "client",
			path:   "/api/v1/sessions/00000000-0000-0000-0000-000000000001",
			status: fiber.StatusNotFound, code: "not_found",
		},
		{
			name: "past date", method: fiber.MethodPost, as: "client", path: "/api/v1/sessions/requests",
			body:   f.bookingBody("2024-04-29", "10:00"),
			status: fiber.StatusBadRequest, code: "past_date",
		},
		{
			name: "missing therapist", method: fiber.MethodPost, as: "client", path: "/api/v1/sessions/requests",
			body:   map[string]any{"session_type_id": f.sessionType.ID, "date": "2024-05-06", "time": "10:00"},
			status: fiber.StatusBadRequest, code: "validation",
		},
		{
			name: "outside window", method: fiber.MethodPost, as: "client", path: "/api/v1/sessions/requests",
			body:   f.bookingBody("2024-05-06", "13:00"),
			status: fiber.StatusConflict, code: "slot_unavailable",
		},
		{
			name: "inverted window", method: fiber.MethodPost, as: "therapist",
			path:   "/api/v1/therapists/" + f.therapist.ID.String() + "/windows",
			body:   map[string]any{"day_of_week": "tuesday", "start_time": "12:00", "end_time": "09:00"},
			status: fiber.StatusBadRequest, code: "invalid_range",
		},
		{
			name: "client adding a window", method: fiber.MethodPost, as: "client",
			path:   "/api/v1/therapists/" + f.therapist.ID.String() + "/windows",
			body:   map[string]any{"day_of_week": "tuesday", "start_time": "09:00", "end_time": "12:00"},
			status: fiber.StatusForbidden, code: "forbidden",
		},
		{
			name: "unknown therapist", method: fiber.MethodGet,
			path:   "/api/v1/therapists/00000000-0000-0000-0000-000000000002",
			status: fiber.StatusNotFound, code: "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.do(t, tt.method, tt.path, tt.as, tt.body)
			assert.Equal(t, tt.status, status, env.Error)
			assert.Equal(t, tt.code, env.Code)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestWindows(t *testing.T) {
	f := newAPIFixture(t)
	base := "/api/v1/therapists/" + f.therapist.ID.String()

	status, env := f.do(t, fiber.MethodPost, base+"/windows", "therapist",
		map[string]any{"day_of_week": "monday", "start_time": "14:00", "end_time": "16:00"})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var w repo.AvailabilityWindow
	require.NoError(t, json.Unmarshal(env.Data, &w))

	status, env = f.do(t, fiber.MethodGet, base+"/availability?date=2024-05-06", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var day slots.DaySlots
	require.NoError(t, json.Unmarshal(env.Data, &day))
	assert.Len(t, day.Slots, 5)

	status, _ = f.do(t, fiber.MethodPatch, "/api/v1/windows/"+w.ID.String()+"/deactivate", "therapist", nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status, env = f.do(t, fiber.MethodGet, base+"/availability?date=2024-05-06", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &day))
	assert.Len(t, day.Slots, 3)
}
