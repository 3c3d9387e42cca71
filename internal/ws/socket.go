package ws

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/fense/trivia/internal/config"
	"github.com/fense/trivia/internal/game"
	"github.com/fense/trivia/internal/questions"
	"github.com/fense/trivia/internal/telemetry"
)

// Clients stop their own timers at the deadline; the server force-ends
// a little later only if no one reported in.
const deadlineGrace = 2 * time.Second

type ConnCtx struct {
	RoomID string
	Name   string
}

// Server binds the socket transport to the game core. It decides which
// audience each state transition reaches: the whole room, or the actor
// alone. Feedback and errors are strictly actor-only; leaking feedback
// room-wide would hand everyone the submitter's progress.
type Server struct {
	reg  *game.Registry
	bank questions.Provider
	cfg  config.Config

	mu      sync.Mutex
	members map[string]map[string]socketio.Conn // roomID -> socketID -> Conn
}

func New(reg *game.Registry, bank questions.Provider, cfg config.Config) *Server {
	return &Server{
		reg:     reg,
		bank:    bank,
		cfg:     cfg,
		members: make(map[string]map[string]socketio.Conn),
	}
}

// Mount attaches the Socket.IO server with all handlers to the given
// Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "create-room", func(s socketio.Conn, payload struct {
		Mode       game.Mode `json:"mode"`
		PlayerName string    `json:"playerName"`
	}) {
		telemetry.SocketEvents.WithLabelValues("create-room").Inc()
		name := strings.TrimSpace(payload.PlayerName)
		if name == "" || !payload.Mode.Valid() {
			srv.errTo(s, "bad_request", "A name and a valid mode are required")
			return
		}
		leader := game.Player{ID: s.ID(), Name: name}
		code, room := srv.reg.Create(payload.Mode, leader)
		s.SetContext(&ConnCtx{RoomID: code, Name: name})
		s.Join(code)
		srv.addMember(code, s)
		telemetry.RoomsCreated.WithLabelValues(string(payload.Mode)).Inc()
		telemetry.ActiveRooms.Set(float64(srv.reg.Len()))
		log.Info().Str("sid", s.ID()).Str("room", code).Str("mode", string(payload.Mode)).Msg("create-room")
		s.Emit("room-created", map[string]any{"roomId": code, "room": room.Snapshot()})
	})

	io.OnEvent("/", "join-room", func(s socketio.Conn, payload struct {
		RoomID     string `json:"roomId"`
		PlayerName string `json:"playerName"`
	}) {
		telemetry.SocketEvents.WithLabelValues("join-room").Inc()
		name := strings.TrimSpace(payload.PlayerName)
		if name == "" {
			srv.errTo(s, "bad_request", "A name is required")
			return
		}
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		player := game.Player{ID: s.ID(), Name: name}
		view := room.Join(player)
		code := room.ID()
		s.SetContext(&ConnCtx{RoomID: code, Name: name})
		s.Join(code)
		srv.addMember(code, s)
		log.Info().Str("sid", s.ID()).Str("room", code).Str("player", name).Msg("join-room")

		io.BroadcastToRoom("/", code, "player-joined", map[string]any{"player": player, "room": view})

		// Late joiners get the open question (answer withheld), the
		// running deadline, and the chat log.
		reply := map[string]any{"room": view, "chatMessages": room.ChatHistory()}
		if round, ok := room.CurrentRound(); ok {
			reply["category"] = round.Category
			reply["question"] = round.Question
			reply["timerEndTime"] = round.TimerEndTime
		}
		s.Emit("room-joined", reply)
	})

	io.OnEvent("/", "start-game", func(s socketio.Conn, payload struct {
		RoomID string `json:"roomId"`
	}) {
		telemetry.SocketEvents.WithLabelValues("start-game").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		res, err := room.Start(s.ID(), srv.bank.Categories())
		if err != nil {
			srv.reject(s, "start-game", err)
			return
		}
		log.Info().Str("room", room.ID()).Str("category", res.Category).Msg("start-game")
		io.BroadcastToRoom("/", room.ID(), "game-started", map[string]any{"category": res.Category})
	})

	io.OnEvent("/", "next-question", func(s socketio.Conn, payload struct {
		RoomID string `json:"roomId"`
	}) {
		telemetry.SocketEvents.WithLabelValues("next-question").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		res, err := room.Advance(s.ID(), time.Now())
		if err != nil {
			srv.reject(s, "next-question", err)
			return
		}
		code := room.ID()
		switch res.Kind {
		case game.AdvanceQuestion:
			log.Info().Str("room", code).Str("question", res.Question.ID).Msg("next-question")
			io.BroadcastToRoom("/", code, "next-question", map[string]any{
				"category":     res.Category,
				"question":     res.Question.View(),
				"timerEndTime": res.TimerEndTime,
			})
			srv.armDeadline(io, room, res.RoundSeq, res.TimerEndTime)
		case game.AdvanceCategory:
			log.Info().Str("room", code).Str("nextCategory", res.NextCategory).Msg("category ended")
			io.BroadcastToRoom("/", code, "category-ended", map[string]any{
				"players":      res.Players,
				"nextCategory": res.NextCategory,
			})
		case game.AdvanceGameOver:
			log.Info().Str("room", code).Msg("game ended")
			telemetry.GamesFinished.Inc()
			io.BroadcastToRoom("/", code, "game-ended", map[string]any{"players": res.Players})
			srv.exportResults(room, res.Players)
		}
	})

	io.OnEvent("/", "end-question", func(s socketio.Conn, payload struct {
		RoomID string `json:"roomId"`
	}) {
		telemetry.SocketEvents.WithLabelValues("end-question").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		res, ok := room.EndCurrentRound()
		if !ok {
			log.Debug().Str("room", room.ID()).Msg("end-question with no open round")
			return
		}
		srv.broadcastQuestionEnded(io, room.ID(), res)
	})

	io.OnEvent("/", "query-answer", func(s socketio.Conn, payload struct {
		RoomID string `json:"roomId"`
		Guess  string `json:"guess"`
	}) {
		telemetry.SocketEvents.WithLabelValues("query-answer").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not active or not found")
			return
		}
		res, err := room.SubmitGuess(s.ID(), payload.Guess, time.Now())
		if err != nil {
			if errors.Is(err, game.ErrInvalidState) {
				srv.errTo(s, "no_active_question", "Room not active or not found")
				return
			}
			srv.reject(s, "query-answer", err)
			return
		}
		// Feedback stays with the submitter, always.
		s.Emit("answer-feedback", map[string]any{"feedback": res.Feedback})
		if res.AllCorrect {
			// Everyone connected has the answer recorded, close early
			// instead of waiting out the timer. The close is pinned to
			// the round the guess was evaluated against; if the leader
			// ended it and opened the next question in between, this is
			// a no-op rather than an instant end of the fresh round.
			endRes, ok := room.EndRound(res.RoundSeq)
			if !ok {
				return
			}
			log.Info().Str("room", room.ID()).Msg("round closed early, all players correct")
			srv.broadcastQuestionEnded(io, room.ID(), endRes)
		}
	})

	io.OnEvent("/", "assign-points", func(s socketio.Conn, payload struct {
		RoomID   string `json:"roomId"`
		PlayerID string `json:"playerId"`
		Points   int    `json:"points"`
	}) {
		telemetry.SocketEvents.WithLabelValues("assign-points").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		players, err := room.AssignPoints(s.ID(), payload.PlayerID, payload.Points)
		if err != nil {
			srv.reject(s, "assign-points", err)
			return
		}
		log.Info().Str("room", room.ID()).Str("player", payload.PlayerID).Int("points", payload.Points).Msg("assign-points")
		io.BroadcastToRoom("/", room.ID(), "points-updated", map[string]any{"players": players})
	})

	io.OnEvent("/", "add-player", func(s socketio.Conn, payload struct {
		RoomID     string `json:"roomId"`
		PlayerName string `json:"playerName"`
	}) {
		telemetry.SocketEvents.WithLabelValues("add-player").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		player, view, err := room.AddPlayer(s.ID(), payload.PlayerName)
		if err != nil {
			srv.reject(s, "add-player", err)
			return
		}
		io.BroadcastToRoom("/", room.ID(), "player-added", map[string]any{"player": player, "room": view})
	})

	io.OnEvent("/", "remove-player", func(s socketio.Conn, payload struct {
		RoomID   string `json:"roomId"`
		PlayerID string `json:"playerId"`
	}) {
		telemetry.SocketEvents.WithLabelValues("remove-player").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		view, err := room.RemovePlayer(s.ID(), payload.PlayerID)
		if err != nil {
			srv.reject(s, "remove-player", err)
			return
		}
		srv.detachKicked(room.ID(), payload.PlayerID)
		io.BroadcastToRoom("/", room.ID(), "player-removed", map[string]any{"playerId": payload.PlayerID, "room": view})
	})

	io.OnEvent("/", "stop-timer", func(s socketio.Conn, payload struct {
		RoomID string `json:"roomId"`
	}) {
		telemetry.SocketEvents.WithLabelValues("stop-timer").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		if err := room.StopTimer(s.ID()); err != nil {
			srv.reject(s, "stop-timer", err)
			return
		}
		io.BroadcastToRoom("/", room.ID(), "timer-stopped", map[string]any{})
	})

	io.OnEvent("/", "send-reaction", func(s socketio.Conn, payload struct {
		RoomID string `json:"roomId"`
		Emoji  string `json:"emoji"`
	}) {
		telemetry.SocketEvents.WithLabelValues("send-reaction").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			return
		}
		// Ephemeral, nothing is retained.
		io.BroadcastToRoom("/", room.ID(), "reaction-received", map[string]any{
			"playerId": s.ID(),
			"emoji":    payload.Emoji,
		})
	})

	io.OnEvent("/", "send-chat-message", func(s socketio.Conn, payload struct {
		RoomID  string `json:"roomId"`
		Message string `json:"message"`
	}) {
		telemetry.SocketEvents.WithLabelValues("send-chat-message").Inc()
		room, err := srv.reg.Get(payload.RoomID)
		if err != nil {
			srv.errTo(s, "room_not_found", "Room not found")
			return
		}
		msg, err := room.AppendChat(s.ID(), payload.Message)
		if err != nil {
			srv.reject(s, "send-chat-message", err)
			return
		}
		io.BroadcastToRoom("/", room.ID(), "chat-message", msg)
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		departures := srv.reg.DropConnection(s.ID())
		for _, d := range departures {
			srv.removeMember(d.RoomID, s)
			if d.Emptied {
				log.Info().Str("room", d.RoomID).Msg("room emptied, deleted")
				continue
			}
			io.BroadcastToRoom("/", d.RoomID, "player-left", map[string]any{
				"playerId": d.PlayerID,
				"room":     d.Room,
			})
		}
		telemetry.ActiveRooms.Set(float64(srv.reg.Len()))
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// armDeadline is the safety net against silent clients: the advisory
// deadline is normally honored client-side via end-question, but if no
// one reports in the server closes the round itself. The sequence makes
// a stale timer a no-op after a manual end, a stopped timer, or a newer
// question.
func (srv *Server) armDeadline(io *socketio.Server, room *game.Room, seq uint64, deadline int64) {
	d := time.Until(time.UnixMilli(deadline)) + deadlineGrace
	time.AfterFunc(d, func() {
		// The room may have emptied and been dropped from the registry
		// while the timer was pending.
		if _, err := srv.reg.Get(room.ID()); err != nil {
			return
		}
		res, ok := room.EndRound(seq)
		if !ok {
			return
		}
		log.Info().Str("room", room.ID()).Msg("round force-ended at deadline")
		srv.broadcastQuestionEnded(io, room.ID(), res)
	})
}

func (srv *Server) broadcastQuestionEnded(io *socketio.Server, code string, res game.EndResult) {
	io.BroadcastToRoom("/", code, "question-ended", map[string]any{
		"correctAnswer": res.CorrectAnswer,
		"guesses":       res.Guesses,
		"players":       res.Players,
	})
}

func (srv *Server) exportResults(room *game.Room, players []game.Player) {
	if srv.cfg.ExportFile == "" {
		return
	}
	if err := game.ExportResults(room.ID(), players, srv.cfg.ExportFile); err != nil {
		log.Error().Err(err).Str("room", room.ID()).Msg("export results")
		return
	}
	log.Info().Str("room", room.ID()).Str("file", srv.cfg.ExportFile).Msg("exported results")
}

// reject maps a game error to what the actor sees. Room-scoped
// failures never reach the rest of the room; invalid-state actions are
// dropped quietly, unauthorized ones get an explicit error back.
func (srv *Server) reject(s socketio.Conn, event string, err error) {
	switch {
	case errors.Is(err, game.ErrNotLeader):
		srv.errTo(s, "unauthorized", "Only the room leader can do that")
	case errors.Is(err, game.ErrWrongMode):
		srv.errTo(s, "unauthorized", "Not available in this game mode")
	default:
		log.Debug().Str("sid", s.ID()).Str("event", event).Err(err).Msg("dropped")
	}
}

func (srv *Server) errTo(s socketio.Conn, code, message string) {
	s.Emit("error", map[string]any{"code": code, "message": message})
}

// detachKicked tells a connected player they were removed and takes
// them out of the broadcast group. Offline participants have no
// connection, so for them this is a no-op.
func (srv *Server) detachKicked(code, playerID string) bool {
	c, ok := srv.member(code, playerID)
	if !ok {
		return false
	}
	c.Emit("removed-from-room", map[string]any{"roomId": code})
	c.Leave(code)
	srv.removeMember(code, c)
	return true
}

func (srv *Server) member(code, id string) (socketio.Conn, bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	c, ok := srv.members[code][id]
	return c, ok
}

func (srv *Server) addMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][c.ID()] = c
}

func (srv *Server) removeMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[code]; m != nil {
		delete(m, c.ID())
		if len(m) == 0 {
			delete(srv.members, code)
		}
	}
}
