package service

import (
	"errors"
)

// Typed operation outcomes. Handlers map these onto transport status codes;
// everything else that bubbles up is an internal error.
var (
	// ErrUnauthenticated means no caller identity was supplied. Fatal:
	// the operation aborts before touching any state.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPermissionDenied means the caller is identified but not allowed:
	// a private room joined by a non-host, or a moderation operation by a
	// non-elevated caller.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound means the referenced room or match does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRoomFull means the room's active member count is at capacity.
	// The rejection is final; callers decide whether to retry later.
	ErrRoomFull = errors.New("room is full")

	// ErrInvalidArgument means the request itself was malformed: an empty
	// room name, an unknown ban scope, a report with no reason.
	ErrInvalidArgument = errors.New("invalid argument")
)
