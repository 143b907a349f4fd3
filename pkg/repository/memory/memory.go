package memory

import (
	"github.com/secmon-lab/coachmem/pkg/domain/interfaces"
)

// Memory is an in-process Repository. Nothing survives a restart.
type Memory struct {
	uploadLedger *uploadLedgerRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		uploadLedger: newUploadLedgerRepository(),
	}
}

func (m *Memory) UploadLedger() interfaces.UploadLedgerRepository {
	return m.uploadLedger
}

func (m *Memory) Close() error {
	return nil
}
