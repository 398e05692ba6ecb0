package stats

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/simorq_sessions/internal/errs"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/clock"
)

const RecentReviewsLimit = 5

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type TherapistStats struct {
	TherapistID       uuid.UUID             `json:"therapist_id"`
	TotalSessions     int                   `json:"total_sessions"`
	CompletedSessions int                   `json:"completed_sessions"`
	AverageRating     float64               `json:"average_rating"`
	RecentReviews     []*repo.SessionRating `json:"recent_reviews"`
}

type Bucket struct {
	Rating  int     `json:"rating"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distribution summarizes every rating a therapist has received.
type Distribution struct {
	TotalRatings     int      `json:"total_ratings"`
	Buckets          []Bucket `json:"buckets"`
	RecommendPercent float64  `json:"recommend_percent"`
	AvgTherapist     float64  `json:"avg_therapist_rating"`
	AvgEnvironment   float64  `json:"avg_environment_rating"`
	AvgHelpfulness   float64  `json:"avg_helpfulness_rating"`
}

type ClientSummary struct {
	ClientID       uuid.UUID `json:"client_id"`
	Upcoming       int       `json:"upcoming"`
	Completed      int       `json:"completed"`
	Cancelled      int       `json:"cancelled"`
	NoShow         int       `json:"no_show"`
	CompletedHours float64   `json:"completed_hours"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	GetTherapistStats(ctx context.Context, therapistID uuid.UUID) (*TherapistStats, error)
	GetRatingDistribution(ctx context.Context, therapistID uuid.UUID) (*Distribution, error)
	GetClientSummary(ctx context.Context, clientID uuid.UUID) (*ClientSummary, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type statsService struct {
	store repo.Store
	clock clock.Clock
	loc   *time.Location
}

func New(store repo.Store, clk clock.Clock, loc *time.Location) Service {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &statsService{store: store, clock: clk, loc: loc}
}

func (s *statsService) GetTherapistStats(ctx context.Context, therapistID uuid.UUID) (*TherapistStats, error) {
	if err := s.therapistExists(ctx, therapistID); err != nil {
		return nil, err
	}

	counts, err := s.store.CountSessionsByStatus(ctx, therapistID)
	if err != nil {
		return nil, errs.Wrap(err, "count sessions")
	}
	ratings, err := s.store.ListRatings(ctx, repo.RatingFilter{TherapistID: &therapistID})
	if err != nil {
		return nil, errs.Wrap(err, "list ratings")
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	recent := ratings
	if len(recent) > RecentReviewsLimit {
		recent = recent[:RecentReviewsLimit]
	}
	return &TherapistStats{
		TherapistID:       therapistID,
		TotalSessions:     total,
		CompletedSessions: counts[repo.StatusCompleted],
		AverageRating:     average(ratings, func(r *repo.SessionRating) int { return r.OverallRating }),
		RecentReviews:     recent,
	}, nil
}

func (s *statsService) GetRatingDistribution(ctx context.Context, therapistID uuid.UUID) (*Distribution, error) {
	if err := s.therapistExists(ctx, therapistID); err != nil {
		return nil, err
	}
	ratings, err := s.store.ListRatings(ctx, repo.RatingFilter{TherapistID: &therapistID})
	if err != nil {
		return nil, errs.Wrap(err, "list ratings")
	}

	byScore := lo.CountValuesBy(ratings, func(r *repo.SessionRating) int { return r.OverallRating })
	d := &Distribution{
		TotalRatings:   len(ratings),
		Buckets:        make([]Bucket, 0, 5),
		AvgTherapist:   average(ratings, func(r *repo.SessionRating) int { return r.TherapistRating }),
		AvgEnvironment: average(ratings, func(r *repo.SessionRating) int { return r.EnvironmentRating }),
		AvgHelpfulness: average(ratings, func(r *repo.SessionRating) int { return r.HelpfulnessRating }),
	}
	for score := 1; score <= 5; score++ {
		d.Buckets = append(d.Buckets, Bucket{
			Rating:  score,
			Count:   byScore[score],
			Percent: percent(byScore[score], len(ratings)),
		})
	}
	d.RecommendPercent = percent(lo.CountBy(ratings, func(r *repo.SessionRating) bool { return r.WouldRecommend }), len(ratings))
	return d, nil
}

func (s *statsService) GetClientSummary(ctx context.Context, clientID uuid.UUID) (*ClientSummary, error) {
	if _, err := s.store.GetUser(ctx, clientID); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrClientNotFound
		}
		return nil, errs.Wrap(err, "get client")
	}
	sessions, err := s.store.ListSessions(ctx, repo.SessionFilter{ClientID: &clientID, Unpaged: true})
	if err != nil {
		return nil, errs.Wrap(err, "list sessions")
	}

	now := s.clock.Now()
	out := &ClientSummary{ClientID: clientID}
	minutes := 0
	for _, sess := range sessions {
		switch sess.Status {
		case repo.StatusCompleted:
			out.Completed++
			minutes += sess.DurationMinutes
		case repo.StatusCancelled:
			out.Cancelled++
		case repo.StatusNoShow:
			out.NoShow++
		default:
			if sess.StartsAt(s.loc).After(now) {
				out.Upcoming++
			}
		}
	}
	out.CompletedHours = round1(float64(minutes) / 60)
	return out, nil
}

func (s *statsService) therapistExists(ctx context.Context, therapistID uuid.UUID) error {
	if _, err := s.store.GetTherapist(ctx, therapistID); err != nil {
		if repo.IsNotFound(err) {
			return ErrTherapistNotFound
		}
		return errs.Wrap(err, "get therapist")
	}
	return nil
}

// average returns the mean of field over ratings rounded to one decimal, or 0.
func average(ratings []*repo.SessionRating, field func(*repo.SessionRating) int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	return round1(float64(lo.SumBy(ratings, field)) / float64(len(ratings)))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) * 100 / float64(total))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
