package storage

import (
	"telemetry-viewer/src/interfaces"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
)

// -----------------------------------------------------------------------------

// NoopJournal is used when db_type is "none".
type NoopJournal struct{}

func (NoopJournal) Initialize() error                        { return nil }
func (NoopJournal) Record(models.MTransition)                {}
func (NoopJournal) Recent(int) ([]models.MTransition, error) { return []models.MTransition{}, nil }
func (NoopJournal) Close() error                             { return nil }

// -----------------------------------------------------------------------------

// NewJournal picks the backend for cfg.Storage.DBType. The caller runs
// Initialize.
func NewJournal(cfg *models.MConfig, log *logger.Logger) (interfaces.IJournal, error) {
	switch cfg.Storage.DBType {
	case "postgres":
		return NewPostgresDB(cfg, log)
	case "sqlite":
		return NewAsyncSQLiteDB(cfg, log)
	default:
		return NoopJournal{}, nil
	}
}
