package model

import (
	"time"

	"github.com/google/uuid"
)

// MemoryRecordID is a UUID-based identifier for MemoryRecord
type MemoryRecordID string

// NewMemoryRecordID generates a new UUID v4 MemoryRecordID
func NewMemoryRecordID() MemoryRecordID {
	return MemoryRecordID(uuid.New().String())
}

// MemoryRecord is one durable text entry submitted to the memory provider.
// Records are write-once; a coaching session produces exactly one summary record.
type MemoryRecord struct {
	ID        MemoryRecordID
	Text      string
	Domain    string // Provider namespace; empty means the client's configured domain
	Title     string
	Source    string
	Author    string
	Timestamp time.Time
}

// ConversationMessage is a raw entry of the provider's stored conversation log
type ConversationMessage struct {
	Text      string
	Timestamp time.Time
	SessionID string
}
