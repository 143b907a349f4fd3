package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	UploadLedger() UploadLedgerRepository

	Close() error
}
