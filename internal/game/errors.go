package game

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotLeader     = errors.New("not the room leader")
	ErrInvalidState  = errors.New("invalid state for action")
	ErrWrongMode     = errors.New("action not available in this mode")
	ErrPlayerUnknown = errors.New("player not in room")
)
