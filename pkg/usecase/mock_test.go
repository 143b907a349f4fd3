package usecase_test

import (
	"context"
	"sync"

	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/service/provider"
)

// mockProvider is a mock implementation of provider.Service for testing
type mockProvider struct {
	mu sync.Mutex

	uploads      []*model.MemoryRecord
	uploadResp   *provider.UploadResponse
	uploadErr    error
	uploadGate   chan struct{}
	historyCalls []string
	history      map[string][]model.ConversationMessage
	historyErr   error
	historyGate  chan struct{}
}

var _ provider.Service = &mockProvider{}

func newMockProvider() *mockProvider {
	return &mockProvider{
		uploadResp: &provider.UploadResponse{Success: true},
		history:    make(map[string][]model.ConversationMessage),
	}
}

func (m *mockProvider) setHistory(sessionID string, messages []model.ConversationMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[sessionID] = messages
}

func (m *mockProvider) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func (m *mockProvider) lastUpload() *model.MemoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.uploads) == 0 {
		return nil
	}
	return m.uploads[len(m.uploads)-1]
}

func (m *mockProvider) historyCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.historyCalls)
}

func (m *mockProvider) SendMessage(ctx context.Context, req *provider.MessageRequest) (*provider.MessageResponse, error) {
	return &provider.MessageResponse{AIMessage: "ok"}, nil
}

func (m *mockProvider) GetConversationHistory(ctx context.Context, sessionID, domain string) ([]model.ConversationMessage, error) {
	m.mu.Lock()
	m.historyCalls = append(m.historyCalls, sessionID)
	gate := m.historyGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	// like the real client, a cancelled request fails
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history[sessionID], nil
}

func (m *mockProvider) UploadMemory(ctx context.Context, rec *model.MemoryRecord) (*provider.UploadResponse, error) {
	return m.UploadText(ctx, rec)
}

func (m *mockProvider) UploadText(ctx context.Context, rec *model.MemoryRecord) (*provider.UploadResponse, error) {
	if m.uploadGate != nil {
		<-m.uploadGate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, rec)
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return m.uploadResp, nil
}

func (m *mockProvider) HealthCheck(ctx context.Context) bool {
	return true
}
