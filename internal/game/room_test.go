package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinKeepsInsertionOrder(t *testing.T) {
	r := newRoom("R1", ModeSynchronized, Player{ID: "p1", Name: "One"})
	r.Join(Player{ID: "p2", Name: "Two"})
	view := r.Join(Player{ID: "p3", Name: "Three"})

	require.Equal(t, []string{"p1", "p2", "p3"}, playerIDs(view.Players))
	require.Equal(t, "p1", view.LeaderID)

	// Re-joining with the same connection does not duplicate.
	view = r.Join(Player{ID: "p2", Name: "Two"})
	require.Equal(t, []string{"p1", "p2", "p3"}, playerIDs(view.Players))
}

func TestSelfPacedManualScoringScenario(t *testing.T) {
	r := newRoom("R1", ModeSelfPaced, Player{ID: "leader", Name: "Quizmaster"})

	a, _, err := r.AddPlayer("leader", "Alice")
	require.NoError(t, err)
	b, _, err := r.AddPlayer("leader", "Bob")
	require.NoError(t, err)

	_, err = r.Start("leader", singleQuestionBank("PARIS", 30))
	require.NoError(t, err)

	players, err := r.AssignPoints("leader", a.ID, 50)
	require.NoError(t, err)

	require.Equal(t, []string{a.ID, "leader", b.ID}, playerIDs(players))
	require.Equal(t, 50, players[0].Score)
	for _, p := range players[1:] {
		require.Equal(t, 0, p.Score)
	}
}

func TestAssignPointsGuards(t *testing.T) {
	r := newRoom("R1", ModeSelfPaced, Player{ID: "leader", Name: "Leader"})
	r.Join(Player{ID: "p2", Name: "Two"})

	_, err := r.AssignPoints("p2", "p2", 10)
	require.ErrorIs(t, err, ErrNotLeader)

	_, err = r.AssignPoints("leader", "ghost", 10)
	require.ErrorIs(t, err, ErrPlayerUnknown)

	online := newRoom("R2", ModeSynchronized, Player{ID: "leader", Name: "Leader"})
	_, err = online.AssignPoints("leader", "leader", 10)
	require.ErrorIs(t, err, ErrWrongMode)
}

func TestAssignPointsNegativeCorrectionClampsAtZero(t *testing.T) {
	r := newRoom("R1", ModeSelfPaced, Player{ID: "leader", Name: "Leader"})

	players, err := r.AssignPoints("leader", "leader", 30)
	require.NoError(t, err)
	require.Equal(t, 30, players[0].Score)

	players, err = r.AssignPoints("leader", "leader", -50)
	require.NoError(t, err)
	require.Equal(t, 0, players[0].Score)
}

func TestLeaderboardStableDescendingOrder(t *testing.T) {
	r := newRoom("R1", ModeSelfPaced, Player{ID: "p1", Name: "One"})
	r.Join(Player{ID: "p2", Name: "Two"})
	r.Join(Player{ID: "p3", Name: "Three"})
	r.Join(Player{ID: "p4", Name: "Four"})

	_, err := r.AssignPoints("p1", "p3", 20)
	require.NoError(t, err)
	_, err = r.AssignPoints("p1", "p2", 20)
	require.NoError(t, err)

	// p3 and p2 tie at 20: join order breaks the tie. p1 and p4 tie
	// at 0 behind them.
	board := r.Leaderboard()
	require.Equal(t, []string{"p2", "p3", "p1", "p4"}, playerIDs(board))

	// Repeated renders agree.
	require.Equal(t, playerIDs(board), playerIDs(r.Leaderboard()))
}

func TestAddRemovePlayerGuards(t *testing.T) {
	r := newRoom("R1", ModeSelfPaced, Player{ID: "leader", Name: "Leader"})
	r.Join(Player{ID: "p2", Name: "Two"})

	_, _, err := r.AddPlayer("p2", "Mallory")
	require.ErrorIs(t, err, ErrNotLeader)

	_, _, err = r.AddPlayer("leader", "   ")
	require.ErrorIs(t, err, ErrInvalidState)

	online := newRoom("R2", ModeSynchronized, Player{ID: "leader", Name: "Leader"})
	_, _, err = online.AddPlayer("leader", "Alice")
	require.ErrorIs(t, err, ErrWrongMode)

	added, view, err := r.AddPlayer("leader", "  Alice  ")
	require.NoError(t, err)
	require.Equal(t, "Alice", added.Name)
	require.NotEmpty(t, added.ID)
	require.Len(t, view.Players, 3)

	view, err = r.RemovePlayer("leader", added.ID)
	require.NoError(t, err)
	require.Len(t, view.Players, 2)

	_, err = r.RemovePlayer("leader", added.ID)
	require.ErrorIs(t, err, ErrPlayerUnknown)
}

func TestRemovingLeaderPromotesEarliestJoined(t *testing.T) {
	r := newRoom("R1", ModeSelfPaced, Player{ID: "leader", Name: "Leader"})
	r.Join(Player{ID: "p2", Name: "Two"})
	r.Join(Player{ID: "p3", Name: "Three"})

	view, err := r.RemovePlayer("leader", "leader")
	require.NoError(t, err)
	require.Equal(t, "p2", view.LeaderID)
}

func TestChatRetainedForLateJoiners(t *testing.T) {
	r := newRoom("R1", ModeSynchronized, Player{ID: "p1", Name: "One"})

	msg, err := r.AppendChat("p1", "  hello  ")
	require.NoError(t, err)
	require.Equal(t, "hello", msg.Message)
	require.Equal(t, "One", msg.SenderName)
	require.NotEmpty(t, msg.ID)
	require.NotZero(t, msg.Timestamp)

	_, err = r.AppendChat("ghost", "hi")
	require.ErrorIs(t, err, ErrPlayerUnknown)

	_, err = r.AppendChat("p1", "   ")
	require.ErrorIs(t, err, ErrInvalidState)

	history := r.ChatHistory()
	require.Len(t, history, 1)
	require.Equal(t, msg, history[0])
}

func TestSnapshotWithholdsGuessesAndDeadlineWhenClosed(t *testing.T) {
	r := startedRoom(ModeSynchronized, singleQuestionBank("PARIS", 30), "p1")
	now := openRound(t, r)

	_, err := r.SubmitGuess("p1", "PARIS", now)
	require.NoError(t, err)

	view := r.Snapshot()
	require.True(t, view.IsActive)
	require.NotZero(t, view.TimerEndTime)

	_, ok := r.EndCurrentRound()
	require.True(t, ok)

	view = r.Snapshot()
	require.Zero(t, view.TimerEndTime)
}

func TestQuestionViewPerWordAnswerLengths(t *testing.T) {
	q := Question{ID: "q", Prompt: "Island nation south of India", Answer: "SRI LANKA", TimeLimit: 30}
	view := q.View()

	require.Equal(t, []int{3, 5}, view.AnswerLengths)
	require.Equal(t, "Island nation south of India", view.Prompt)

	single := Question{Answer: "PARIS"}
	require.Equal(t, []int{5}, single.View().AnswerLengths)
}

func TestCurrentRoundForLateJoiner(t *testing.T) {
	r := startedRoom(ModeSynchronized, singleQuestionBank("PARIS", 30), "p1")

	_, ok := r.CurrentRound()
	require.False(t, ok)

	now := openRound(t, r)

	round, ok := r.CurrentRound()
	require.True(t, ok)
	require.Equal(t, "General", round.Category)
	require.Equal(t, []int{5}, round.Question.AnswerLengths)
	require.Equal(t, now.UnixMilli()+30_000, round.TimerEndTime)
}

func playerIDs(players []Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}
