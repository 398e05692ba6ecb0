package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/jalali"
	"github.com/Alijeyrad/simorq_sessions/pkg/reqctx"
)

// caller is the authenticated actor of a request.
type caller struct {
	ID   uuid.UUID
	Role repo.Role
}

func (c caller) IsAdmin() bool { return c.Role == repo.RoleAdmin }

// actsFor reports whether the caller may act on behalf of userID.
func (c caller) actsFor(userID uuid.UUID) bool {
	return c.IsAdmin() || c.ID == userID
}

func callerFrom(c fiber.Ctx) (caller, bool) {
	a := reqctx.ActorFromContext(c.Context())
	if a == nil || a.GetUserID() == uuid.Nil {
		return caller{}, false
	}
	return caller{ID: a.GetUserID(), Role: repo.Role(a.GetRole())}, true
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func pageParams(c fiber.Ctx) repo.Page {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", strconv.Itoa(repo.DefaultPerPage)))
	return repo.Page{Page: page, PerPage: perPage}
}

// parseDate accepts a Jalali "1403/02/12" or an ISO "2024-05-01" date and
// returns the civil date.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if jalali.LooksJalali(s) {
		t, err := jalali.Parse(s, loc)
		if err != nil {
			return time.Time{}, false
		}
		return repo.DateOf(t), true
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
