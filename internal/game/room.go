package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Room is the authoritative state for one game instance. All mutation
// goes through its mutex; the socket layer never touches fields
// directly and only ever sees copies.
type Room struct {
	id       string
	mode     Mode
	leaderID string

	players    []Player
	categories []Category // immutable snapshot once Start has run

	categoryIndex *int
	questionIndex *int
	isActive      bool
	roundDeadline int64 // unix millis, 0 while no timed question is open
	roundOpen     bool
	roundSeq      uint64
	guesses       map[string]Guess
	chat          []ChatMessage

	mu sync.Mutex
}

func newRoom(id string, mode Mode, leader Player) *Room {
	// The leader is an explicit field in both modes, never inferred
	// from roster order.
	return &Room{
		id:       id,
		mode:     mode,
		leaderID: leader.ID,
		players:  []Player{leader},
		guesses:  make(map[string]Guess),
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) Mode() Mode { return r.mode }

func (r *Room) LeaderID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaderID
}

// Join appends a connected player. Insertion order is join order and is
// significant: it breaks leaderboard ties and decides leader promotion.
func (r *Room) Join(p Player) RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.players {
		if existing.ID == p.ID {
			return r.snapshotLocked()
		}
	}
	r.players = append(r.players, p)
	return r.snapshotLocked()
}

// AddPlayer registers an offline participant (someone in the room
// without their own device). Leader-only, self-paced rooms only.
func (r *Room) AddPlayer(actorID, name string) (Player, RoomView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != ModeSelfPaced {
		return Player{}, RoomView{}, ErrWrongMode
	}
	if actorID != r.leaderID {
		return Player{}, RoomView{}, ErrNotLeader
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, RoomView{}, ErrInvalidState
	}
	p := Player{ID: "player-" + uuid.NewString(), Name: name}
	r.players = append(r.players, p)
	return p, r.snapshotLocked(), nil
}

// RemovePlayer drops a participant by id. Leader-only, self-paced rooms
// only. Removing the leader promotes the earliest-joined survivor.
func (r *Room) RemovePlayer(actorID, playerID string) (RoomView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != ModeSelfPaced {
		return RoomView{}, ErrWrongMode
	}
	if actorID != r.leaderID {
		return RoomView{}, ErrNotLeader
	}
	if !r.removeLocked(playerID) {
		return RoomView{}, ErrPlayerUnknown
	}
	return r.snapshotLocked(), nil
}

// dropPlayer removes a disconnected participant, reporting whether the
// room is now empty. Used by the registry's disconnect scan.
func (r *Room) dropPlayer(playerID string) (removed bool, empty bool, view RoomView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.removeLocked(playerID) {
		return false, false, RoomView{}
	}
	return true, len(r.players) == 0, r.snapshotLocked()
}

func (r *Room) removeLocked(playerID string) bool {
	for i, p := range r.players {
		if p.ID != playerID {
			continue
		}
		r.players = append(r.players[:i], r.players[i+1:]...)
		delete(r.guesses, playerID)
		if r.leaderID == playerID && len(r.players) > 0 {
			r.leaderID = r.players[0].ID
		}
		return true
	}
	return false
}

// AssignPoints applies a signed manual correction to one player's
// score. Leader-only, self-paced rooms only. Scores never go below
// zero.
func (r *Room) AssignPoints(actorID, playerID string, delta int) ([]Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != ModeSelfPaced {
		return nil, ErrWrongMode
	}
	if actorID != r.leaderID {
		return nil, ErrNotLeader
	}
	for i := range r.players {
		if r.players[i].ID != playerID {
			continue
		}
		r.players[i].Score += delta
		if r.players[i].Score < 0 {
			r.players[i].Score = 0
		}
		return r.leaderboardLocked(), nil
	}
	return nil, ErrPlayerUnknown
}

func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// Leaderboard returns players sorted by descending score. The sort is
// stable so equal scores keep join order and repeated renders agree.
func (r *Room) Leaderboard() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaderboardLocked()
}

func (r *Room) leaderboardLocked() []Player {
	out := make([]Player, len(r.players))
	copy(out, r.players)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// AppendChat records and returns a chat message. The log is retained so
// late joiners can catch up.
func (r *Room) AppendChat(senderID, message string) (ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatMessage{}, ErrInvalidState
	}
	name := ""
	for _, p := range r.players {
		if p.ID == senderID {
			name = p.Name
			break
		}
	}
	if name == "" {
		return ChatMessage{}, ErrPlayerUnknown
	}
	msg := ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		SenderName: name,
		Message:    message,
		Timestamp:  time.Now().UnixMilli(),
	}
	r.chat = append(r.chat, msg)
	return msg, nil
}

func (r *Room) ChatHistory() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChatMessage, len(r.chat))
	copy(out, r.chat)
	return out
}

func (r *Room) Snapshot() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() RoomView {
	players := make([]Player, len(r.players))
	copy(players, r.players)
	v := RoomView{
		ID:       r.id,
		Mode:     r.mode,
		Players:  players,
		IsActive: r.isActive,
		LeaderID: r.leaderID,
	}
	if r.categoryIndex != nil {
		ci := *r.categoryIndex
		v.CurrentCategoryIndex = &ci
	}
	if r.questionIndex != nil {
		qi := *r.questionIndex
		v.CurrentQuestionIndex = &qi
	}
	if r.roundOpen {
		v.TimerEndTime = r.roundDeadline
	}
	return v
}

// OpenRound describes an in-flight question for a late joiner: the
// category banner, the question with its answer withheld, and the
// advisory deadline.
type OpenRound struct {
	Category     string
	Question     QuestionView
	TimerEndTime int64
}

// CurrentRound returns the open question, if any.
func (r *Room) CurrentRound() (OpenRound, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.currentQuestionLocked()
	if !ok || !r.roundOpen {
		return OpenRound{}, false
	}
	return OpenRound{
		Category:     r.categories[*r.categoryIndex].Name,
		Question:     q.View(),
		TimerEndTime: r.roundDeadline,
	}, true
}

func (r *Room) currentQuestionLocked() (Question, bool) {
	if !r.isActive || r.categoryIndex == nil || r.questionIndex == nil {
		return Question{}, false
	}
	ci, qi := *r.categoryIndex, *r.questionIndex
	if ci < 0 || ci >= len(r.categories) {
		return Question{}, false
	}
	qs := r.categories[ci].Questions
	if qi < 0 || qi >= len(qs) {
		return Question{}, false
	}
	return qs[qi], true
}
