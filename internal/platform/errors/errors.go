package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrNoActiveSession   = errors.New("no active session")
	ErrInvalidGoalHours  = errors.New("goal hours must be within (0, 24]")
	ErrOracleUnavailable = errors.New("network oracle unavailable")
	ErrDaemonNotRunning  = errors.New("daemon is not running")
)
