package usecase

import "github.com/m-mizutani/goerr/v2"

var (
	ErrEmptyClientID  = goerr.New("client ID is required")
	ErrEmptySessionID = goerr.New("session ID is required")
)

// Context keys for error values and log attributes
const (
	ClientIDKey  = "client_id"
	SessionIDKey = "session_id"
)
