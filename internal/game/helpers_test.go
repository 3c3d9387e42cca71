package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func singleQuestionBank(answer string, limit int) []Category {
	return []Category{{
		Name: "General",
		Questions: []Question{
			{ID: "q1", Prompt: "The question", Answer: answer, TimeLimit: limit},
		},
	}}
}

// startedRoom builds a room whose snapshot is fixed rather than
// sampled, so tests see a deterministic category and question order.
// The first player is the leader.
func startedRoom(mode Mode, cats []Category, playerIDs ...string) *Room {
	r := newRoom("TEST42", mode, Player{ID: playerIDs[0], Name: playerIDs[0]})
	for _, id := range playerIDs[1:] {
		r.Join(Player{ID: id, Name: id})
	}
	ci, qi := 0, preQuestionIndex
	r.categories = cats
	r.categoryIndex = &ci
	r.questionIndex = &qi
	r.isActive = true
	return r
}

// openRound advances past the category banner into the first question
// and returns the instant the deadline was computed from.
func openRound(t *testing.T, r *Room) time.Time {
	t.Helper()
	now := time.Now()
	res, err := r.Advance(r.leaderID, now)
	require.NoError(t, err)
	require.Equal(t, AdvanceQuestion, res.Kind)
	return now
}
