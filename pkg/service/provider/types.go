package provider

import (
	"context"

	"github.com/secmon-lab/coachmem/pkg/domain/model"
)

// Service is the single point of contact with the memory provider's HTTP API.
// Every data-bearing call is retried with exponential backoff, except for
// 403 and 404 responses which fail immediately.
type Service interface {
	// SendMessage sends a chat message to the provider's AI
	SendMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error)

	// GetConversationHistory returns the stored conversation log of a session.
	// An empty domain means the configured default domain.
	GetConversationHistory(ctx context.Context, sessionID, domain string) ([]model.ConversationMessage, error)

	// UploadMemory stores a short memory entry
	UploadMemory(ctx context.Context, rec *model.MemoryRecord) (*UploadResponse, error)

	// UploadText stores a long-form text document such as a session summary
	UploadText(ctx context.Context, rec *model.MemoryRecord) (*UploadResponse, error)

	// HealthCheck sends a trivial message and reports whether it succeeded.
	// Errors are logged, never returned.
	HealthCheck(ctx context.Context) bool
}

// MessageRequest is the body of POST /message
type MessageRequest struct {
	Text       string `json:"Text"`
	DomainName string `json:"DomainName"`
	UserName   string `json:"UserName,omitempty"`
	SourceName string `json:"SourceName,omitempty"`
	SessionID  string `json:"SessionId,omitempty"`
	Context    string `json:"Context,omitempty"`
}

// MessageResponse is the reply of POST /message
type MessageResponse struct {
	AIMessage string  `json:"ai_message"`
	AIScore   float64 `json:"ai_score"`
	AIName    string  `json:"ai_name"`
	SessionID string  `json:"SessionId"`
}

// UploadResponse is the reply of POST /memory and POST /upload-text
type UploadResponse struct {
	Success bool
	Message string
}

type conversationRequest struct {
	SessionID  string `json:"SessionId"`
	DomainName string `json:"DomainName"`
}

// conversationEntry tolerates the field spellings observed from the provider.
// encoding/json matches tags case-insensitively, so "text" also reads "Text".
type conversationEntry struct {
	Text           string `json:"text"`
	Message        string `json:"message"`
	AIMessage      string `json:"ai_message"`
	Timestamp      string `json:"timestamp"`
	CreatedAt      string `json:"created_at"`
	CreatedTime    string `json:"CreatedTime"`
	SessionID      string `json:"SessionId"`
	SessionIDSnake string `json:"session_id"`
}

type memoryRequest struct {
	Text        string `json:"Text"`
	DomainName  string `json:"DomainName"`
	SourceName  string `json:"SourceName,omitempty"`
	CreatedTime string `json:"CreatedTime,omitempty"`
	DeviceName  string `json:"DeviceName,omitempty"`
	RawFeedText string `json:"RawFeedText,omitempty"`
}

type uploadTextRequest struct {
	Text        string `json:"Text"`
	Title       string `json:"Title"`
	DomainName  string `json:"DomainName"`
	SourceName  string `json:"SourceName,omitempty"`
	StartTime   string `json:"StartTime,omitempty"`
	CreatedBy   string `json:"CreatedBy,omitempty"`
	ReferenceID string `json:"ReferenceId,omitempty"`
}

type uploadResponseBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}
