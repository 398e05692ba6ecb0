package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/internal/service/stats"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type SessionTypeRequest struct {
	Name            string
	Description     string
	DurationMinutes int
	Price           int64
	IsActive        bool
}

type ProfileRequest struct {
	UserID          uuid.UUID
	Specializations []string
	HourlyRate      int64
	IsAccepting     bool
	Bio             string
	YearsExperience int
}

// TherapistDetail is the public profile page of a therapist.
type TherapistDetail struct {
	*repo.Therapist
	Stats        *stats.TherapistStats `json:"stats"`
	Distribution *stats.Distribution   `json:"rating_distribution"`
	SessionTypes []*repo.SessionType   `json:"session_types"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	ListSessionTypes(ctx context.Context, activeOnly bool) ([]*repo.SessionType, error)
	GetSessionType(ctx context.Context, id uuid.UUID) (*repo.SessionType, error)
	UpsertSessionType(ctx context.Context, req SessionTypeRequest) (*repo.SessionType, error)

	ListTherapists(ctx context.Context, f repo.TherapistFilter) ([]*repo.Therapist, error)
	GetTherapist(ctx context.Context, id uuid.UUID) (*repo.Therapist, error)
	GetTherapistDetail(ctx context.Context, id uuid.UUID) (*TherapistDetail, error)
	UpsertProfile(ctx context.Context, req ProfileRequest) (*repo.Therapist, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type catalogService struct {
	store repo.Store
	stats stats.Service
}

func New(store repo.Store, st stats.Service) Service {
	return &catalogService{store: store, stats: st}
}

func (s *catalogService) ListSessionTypes(ctx context.Context, activeOnly bool) ([]*repo.SessionType, error) {
	list, err := s.store.ListSessionTypes(ctx, activeOnly)
	if err != nil {
		return nil, errs.Wrap(err, "list session types")
	}
	return list, nil
}

func (s *catalogService) GetSessionType(ctx context.Context, id uuid.UUID) (*repo.SessionType, error) {
	st, err := s.store.GetSessionType(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionTypeNotFound
		}
		return nil, errs.Wrap(err, "get session type")
	}
	return st, nil
}

// UpsertSessionType creates a session type or updates the one with the same name.
func (s *catalogService) UpsertSessionType(ctx context.Context, req SessionTypeRequest) (*repo.SessionType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.DurationMinutes <= 0 || req.Price < 0 {
		return nil, ErrInvalidSessionType
	}
	st := &repo.SessionType{
		Name:            name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		IsActive:        req.IsActive,
	}
	if err := s.store.UpsertSessionType(ctx, st); err != nil {
		return nil, errs.Wrap(err, "upsert session type")
	}
	slog.Info("catalog: session type saved", "id", st.ID, "name", st.Name)
	return st, nil
}

func (s *catalogService) ListTherapists(ctx context.Context, f repo.TherapistFilter) ([]*repo.Therapist, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.Specialization = strings.TrimSpace(f.Specialization)
	list, err := s.store.ListTherapists(ctx, f)
	if err != nil {
		return nil, errs.Wrap(err, "list therapists")
	}
	return list, nil
}

func (s *catalogService) GetTherapist(ctx context.Context, id uuid.UUID) (*repo.Therapist, error) {
	t, err := s.store.GetTherapist(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, errs.Wrap(err, "get therapist")
	}
	if !t.IsActive {
		return nil, ErrTherapistNotFound
	}
	return t, nil
}

func (s *catalogService) GetTherapistDetail(ctx context.Context, id uuid.UUID) (*TherapistDetail, error) {
	t, err := s.GetTherapist(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := s.stats.GetTherapistStats(ctx, id)
	if err != nil {
		return nil, err
	}
	dist, err := s.stats.GetRatingDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	types, err := s.ListSessionTypes(ctx, true)
	if err != nil {
		return nil, err
	}
	return &TherapistDetail{Therapist: t, Stats: st, Distribution: dist, SessionTypes: types}, nil
}

// UpsertProfile promotes a user to therapist and stores the profile.
func (s *catalogService) UpsertProfile(ctx context.Context, req ProfileRequest) (*repo.Therapist, error) {
	if req.HourlyRate < 0 || req.YearsExperience < 0 {
		return nil, ErrInvalidProfile
	}
	u, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTherapistNotFound
		}
		return nil, errs.Wrap(err, "get user")
	}
	if u.Role == repo.RoleClient {
		u.Role = repo.RoleTherapist
		if err := s.store.UpsertUser(ctx, u); err != nil {
			return nil, errs.Wrap(err, "update user role")
		}
	}

	specs := make([]string, 0, len(req.Specializations))
	for _, sp := range req.Specializations {
		if sp = strings.TrimSpace(sp); sp != "" {
			specs = append(specs, sp)
		}
	}
	p := &repo.TherapistProfile{
		UserID:          u.ID,
		Specializations: specs,
		HourlyRate:      req.HourlyRate,
		IsAccepting:     req.IsAccepting,
		Bio:             req.Bio,
		YearsExperience: req.YearsExperience,
	}
	if err := s.store.UpsertTherapistProfile(ctx, p); err != nil {
		return nil, errs.Wrap(err, "upsert therapist profile")
	}
	return s.GetTherapist(ctx, u.ID)
}
