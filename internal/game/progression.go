package game

import (
	"math/rand"
	"strings"
	"time"
)

// Bounded random sample taken at game start: at most 5 categories with
// at most 5 questions each.
const (
	maxCategories        = 5
	maxQuestionsPerRound = 5
)

// preQuestionIndex marks the category-banner step that precedes each
// question run, including the very first.
const preQuestionIndex = -1

type StartResult struct {
	Category string
}

type AdvanceKind int

const (
	AdvanceQuestion AdvanceKind = iota
	AdvanceCategory
	AdvanceGameOver
)

type AdvanceResult struct {
	Kind AdvanceKind

	// AdvanceQuestion
	Category     string
	Question     Question
	TimerEndTime int64
	RoundSeq     uint64

	// AdvanceCategory
	NextCategory string

	// AdvanceCategory and AdvanceGameOver
	Players []Player
}

type EndResult struct {
	CorrectAnswer string
	Guesses       map[string]Guess
	Players       []Player
}

// Start takes the immutable category snapshot and opens the first
// category banner. Leader-only. The first question is not timed here;
// it is delivered by the leader's subsequent advance, so every category
// change, including the first, shows its banner before a timer runs.
func (r *Room) Start(actorID string, bank []Category) (StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if actorID != r.leaderID {
		return StartResult{}, ErrNotLeader
	}
	if r.isActive {
		return StartResult{}, ErrInvalidState
	}
	snapshot := sampleCategories(bank)
	if len(snapshot) == 0 {
		return StartResult{}, ErrInvalidState
	}
	r.categories = snapshot
	ci, qi := 0, preQuestionIndex
	r.categoryIndex = &ci
	r.questionIndex = &qi
	r.isActive = true
	r.roundOpen = false
	r.roundDeadline = 0
	r.guesses = make(map[string]Guess)
	return StartResult{Category: snapshot[0].Name}, nil
}

// Advance moves to the next question, the next category banner, or the
// terminal state. Leader-only.
func (r *Room) Advance(actorID string, now time.Time) (AdvanceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if actorID != r.leaderID {
		return AdvanceResult{}, ErrNotLeader
	}
	if !r.isActive || r.categoryIndex == nil || r.questionIndex == nil {
		return AdvanceResult{}, ErrInvalidState
	}

	ci, qi := *r.categoryIndex, *r.questionIndex+1
	if qi < len(r.categories[ci].Questions) {
		q := r.categories[ci].Questions[qi]
		*r.questionIndex = qi
		r.roundDeadline = now.UnixMilli() + int64(q.TimeLimit)*1000
		r.roundOpen = true
		r.roundSeq++
		r.guesses = make(map[string]Guess)
		return AdvanceResult{
			Kind:         AdvanceQuestion,
			Category:     r.categories[ci].Name,
			Question:     q,
			TimerEndTime: r.roundDeadline,
			RoundSeq:     r.roundSeq,
		}, nil
	}

	r.roundOpen = false
	r.roundDeadline = 0
	ci++
	if ci < len(r.categories) {
		*r.categoryIndex = ci
		*r.questionIndex = preQuestionIndex
		return AdvanceResult{
			Kind:         AdvanceCategory,
			NextCategory: r.categories[ci].Name,
			Players:      r.leaderboardLocked(),
		}, nil
	}

	r.categoryIndex = nil
	r.questionIndex = nil
	r.isActive = false
	return AdvanceResult{
		Kind:    AdvanceGameOver,
		Players: r.leaderboardLocked(),
	}, nil
}

// EndRound freezes the round identified by seq. A stale seq (the round
// already ended, or a newer one started) is a no-op, which makes the
// deadline safety timer and a racing leader action commute. In
// synchronized mode every recorded guess scores 100 points plus 10 per
// full second that was left at submission.
func (r *Room) EndRound(seq uint64) (EndResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.roundOpen || seq != r.roundSeq {
		return EndResult{}, false
	}
	q, ok := r.currentQuestionLocked()
	if !ok {
		return EndResult{}, false
	}
	answer := normalizeAnswer(q.Answer)

	if r.mode == ModeSynchronized {
		for playerID, g := range r.guesses {
			if g.Value != answer {
				continue
			}
			for i := range r.players {
				if r.players[i].ID == playerID {
					r.players[i].Score += scoreFor(g.RemainingMillis)
					break
				}
			}
		}
	}

	res := EndResult{
		CorrectAnswer: answer,
		Guesses:       r.guesses,
		Players:       r.leaderboardLocked(),
	}
	r.guesses = make(map[string]Guess)
	r.roundOpen = false
	r.roundDeadline = 0
	return res, true
}

// EndCurrentRound freezes whatever round is open, used for the explicit
// end-question action.
func (r *Room) EndCurrentRound() (EndResult, bool) {
	r.mu.Lock()
	seq := r.roundSeq
	r.mu.Unlock()
	return r.EndRound(seq)
}

// StopTimer cancels the advisory deadline without ending the question.
// Leader-only. Bumping the sequence disarms any pending deadline timer;
// guesses recorded afterwards carry no time bonus.
func (r *Room) StopTimer(actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if actorID != r.leaderID {
		return ErrNotLeader
	}
	if !r.roundOpen {
		return ErrInvalidState
	}
	r.roundDeadline = 0
	r.roundSeq++
	return nil
}

func scoreFor(remainingMillis int64) int {
	bonus := remainingMillis / 1000
	if bonus < 0 {
		bonus = 0
	}
	return 100 + int(bonus)*10
}

func normalizeAnswer(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// sampleCategories copies and bounds the provider's bank: questions are
// shuffled within each category and capped, then the category order is
// shuffled and capped. The input is never mutated.
func sampleCategories(bank []Category) []Category {
	cats := make([]Category, len(bank))
	copy(cats, bank)
	rand.Shuffle(len(cats), func(i, j int) { cats[i], cats[j] = cats[j], cats[i] })
	if len(cats) > maxCategories {
		cats = cats[:maxCategories]
	}
	for i, c := range cats {
		qs := make([]Question, len(c.Questions))
		copy(qs, c.Questions)
		rand.Shuffle(len(qs), func(a, b int) { qs[a], qs[b] = qs[b], qs[a] })
		if len(qs) > maxQuestionsPerRound {
			qs = qs[:maxQuestionsPerRound]
		}
		cats[i].Questions = qs
	}
	return cats
}
