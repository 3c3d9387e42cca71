package game

import (
	"strings"
	"time"
)

// GuessResult is what one evaluated guess produced. Feedback goes back
// to the submitting connection only; AllCorrect tells the caller the
// round should close early. RoundSeq identifies the round the guess was
// evaluated against, so an early close triggered by AllCorrect cannot
// land on a round that opened in between.
type GuessResult struct {
	Feedback   []LetterFeedback
	Correct    bool
	AllCorrect bool
	RoundSeq   uint64
}

// Feedback compares a guess to the answer position by position after
// uppercasing both. An exact positional match reveals the letter; a
// letter present elsewhere in the answer is reported with a nil letter;
// anything else, including a literal space, yields no entry. Guesses
// shorter or longer than the answer are fine, only indices present in
// the guess are evaluated.
func Feedback(guess, answer string) []LetterFeedback {
	g := []rune(strings.ToUpper(strings.TrimSpace(guess)))
	a := []rune(strings.ToUpper(answer))
	feedback := make([]LetterFeedback, 0, len(g))
	for i, c := range g {
		if c == ' ' {
			continue
		}
		if i < len(a) && a[i] == c {
			letter := string(c)
			feedback = append(feedback, LetterFeedback{Letter: &letter, Index: i})
			continue
		}
		for _, ac := range a {
			if ac == c {
				feedback = append(feedback, LetterFeedback{Letter: nil, Index: i})
				break
			}
		}
	}
	return feedback
}

// SubmitGuess evaluates a guess against the open question. Only an
// exact match is recorded, so players can keep retrying; the remaining
// time is captured now, not when the round closes. AllCorrect is
// checked against the live roster so a mid-round joiner keeps the round
// open.
func (r *Room) SubmitGuess(playerID, guess string, now time.Time) (GuessResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isActive || !r.roundOpen {
		return GuessResult{}, ErrInvalidState
	}
	q, ok := r.currentQuestionLocked()
	if !ok {
		return GuessResult{}, ErrInvalidState
	}
	known := false
	for _, p := range r.players {
		if p.ID == playerID {
			known = true
			break
		}
	}
	if !known {
		return GuessResult{}, ErrPlayerUnknown
	}

	res := GuessResult{Feedback: Feedback(guess, q.Answer), RoundSeq: r.roundSeq}
	if normalizeAnswer(guess) != normalizeAnswer(q.Answer) {
		return res, nil
	}

	remaining := int64(0)
	if r.roundDeadline > 0 {
		remaining = r.roundDeadline - now.UnixMilli()
		if remaining < 0 {
			remaining = 0
		}
	}
	r.guesses[playerID] = Guess{Value: normalizeAnswer(guess), RemainingMillis: remaining}
	res.Correct = true

	res.AllCorrect = true
	for _, p := range r.players {
		if _, ok := r.guesses[p.ID]; !ok {
			res.AllCorrect = false
			break
		}
	}
	return res, nil
}
