package game

// Mode selects how a room is driven: "online" rooms score submitted
// guesses automatically with a time bonus, "in-person" rooms are driven
// by a leader who assigns points by hand.
type Mode string

const (
	ModeSynchronized Mode = "online"
	ModeSelfPaced    Mode = "in-person"
)

func (m Mode) Valid() bool {
	return m == ModeSynchronized || m == ModeSelfPaced
}

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type Question struct {
	ID        string `json:"id"`
	Prompt    string `json:"question"`
	Answer    string `json:"answer"`
	TimeLimit int    `json:"timeLimit"` // seconds
}

type Category struct {
	Name      string     `json:"categoryName"`
	Questions []Question `json:"questions"`
}

// Guess is a recorded correct answer for one player. RemainingMillis is
// captured at submission time so the time bonus does not depend on when
// the round is eventually closed.
type Guess struct {
	Value           string `json:"value"`
	RemainingMillis int64  `json:"remainingMillis"`
}

// LetterFeedback is one positional hint. Letter is nil when the guessed
// letter appears elsewhere in the answer; the letter itself is withheld
// so only its presence leaks, not its position.
type LetterFeedback struct {
	Letter *string `json:"letter"`
	Index  int     `json:"index"`
}

type ChatMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"` // unix millis
}

// QuestionView is the outbound shape of a question. The answer never
// leaves the server; clients get one length per word so they can size
// an input grid.
type QuestionView struct {
	ID            string `json:"id"`
	Prompt        string `json:"question"`
	AnswerLengths []int  `json:"answerLengths"`
	TimeLimit     int    `json:"timeLimit"`
}

// RoomView is the wire snapshot of a room. It deliberately excludes the
// guess map (recorded guesses equal the answer) and the category
// snapshot (questions carry answers).
type RoomView struct {
	ID                   string   `json:"id"`
	Mode                 Mode     `json:"mode"`
	Players              []Player `json:"players"`
	CurrentCategoryIndex *int     `json:"currentCategoryIndex"`
	CurrentQuestionIndex *int     `json:"currentQuestionIndex"`
	IsActive             bool     `json:"isActive"`
	LeaderID             string   `json:"leaderId,omitempty"`
	TimerEndTime         int64    `json:"timerEndTime,omitempty"`
}

// View strips the answer from a question, keeping per-word lengths.
// Words are separated by single spaces in the stored answer.
func (q Question) View() QuestionView {
	var lengths []int
	run := 0
	for _, r := range q.Answer {
		if r == ' ' {
			if run > 0 {
				lengths = append(lengths, run)
				run = 0
			}
			continue
		}
		run++
	}
	if run > 0 {
		lengths = append(lengths, run)
	}
	return QuestionView{
		ID:            q.ID,
		Prompt:        q.Prompt,
		AnswerLengths: lengths,
		TimeLimit:     q.TimeLimit,
	}
}
