package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// UploadedSession is a ledger entry for a session summary already stored at the provider
type UploadedSession struct {
	SessionID  string         `json:"session_id" firestore:"session_id"`
	ClientID   string         `json:"client_id" firestore:"client_id"`
	RecordID   MemoryRecordID `json:"record_id" firestore:"record_id"`
	UploadedAt time.Time      `json:"uploaded_at" firestore:"uploaded_at"`
}

func (x *UploadedSession) Validate() error {
	if x == nil {
		return goerr.New("uploaded session is nil")
	}
	if x.SessionID == "" {
		return goerr.New("session ID is required")
	}
	if x.UploadedAt.IsZero() {
		return goerr.New("uploaded at is required", goerr.V("session_id", x.SessionID))
	}
	return nil
}
