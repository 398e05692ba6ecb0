package booking

import (
	"slices"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
)

// transitions lists the legal target statuses of every non-terminal status.
var transitions = map[repo.SessionStatus][]repo.SessionStatus{
	repo.StatusPending:    {repo.StatusConfirmed, repo.StatusCancelled},
	repo.StatusScheduled:  {repo.StatusInProgress, repo.StatusCancelled},
	repo.StatusConfirmed:  {repo.StatusInProgress, repo.StatusCancelled, repo.StatusNoShow},
	repo.StatusInProgress: {repo.StatusCompleted, repo.StatusNoShow},
}

// CanTransition reports whether a session may move from one status to another.
func CanTransition(from, to repo.SessionStatus) bool {
	return slices.Contains(transitions[from], to)
}

// reschedulable statuses keep their status when moved to another time.
func reschedulable(s repo.SessionStatus) bool {
	return s == repo.StatusPending || s == repo.StatusScheduled || s == repo.StatusConfirmed
}
