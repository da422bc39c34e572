package storage

import (
	"database/sql"
	"fmt"
	"time"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger

	queue *writeQueue
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	if cfg.Storage.DBPath == "" {
		return nil, helpers.NewStorageError("sqlite path is empty", nil)
	}
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewStorageError("failed to open sqlite", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewStorageError("failed to reach sqlite", err)
	}

	// One writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.queue = newWriteQueue(d.Config.Storage.JournalQueueSize, d.insert, d.Logger)
	d.Logger.Info("SQLite journal ready at %s", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS session_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			event TEXT NOT NULL,
			detail TEXT,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewStorageError("failed to create session_transitions", err)
	}

	if _, err := d.DB.Exec(`CREATE INDEX IF NOT EXISTS idx_session_transitions_created ON session_transitions (created_at)`); err != nil {
		return helpers.NewStorageError("failed to create index", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) insert(t models.MTransition) error {
	_, err := d.DB.Exec(`
		INSERT INTO session_transitions (session_id, from_state, to_state, event, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.SessionID, string(t.From), string(t.To), t.Event, t.Detail, t.CreatedAt.UTC().UnixMilli())
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Record(t models.MTransition) {
	if d.queue == nil {
		return
	}
	d.queue.push(t)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Recent(limit int) ([]models.MTransition, error) {
	if d.DB == nil {
		return nil, helpers.NewStorageError("journal not initialized", nil)
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.DB.Query(`
		SELECT session_id, from_state, to_state, event, COALESCE(detail, ''), created_at
		FROM session_transitions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, helpers.NewStorageError("failed to query transitions", err)
	}
	defer rows.Close()

	var out []models.MTransition
	for rows.Next() {
		var (
			t         models.MTransition
			from, to  string
			createdMs int64
		)
		if err := rows.Scan(&t.SessionID, &from, &to, &t.Event, &t.Detail, &createdMs); err != nil {
			return nil, helpers.NewStorageError("failed to scan transition", err)
		}
		t.From = models.MState(from)
		t.To = models.MState(to)
		t.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewStorageError("failed to read transitions", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.queue != nil {
		d.queue.close()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return fmt.Errorf("failed to close sqlite: %w", err)
		}
	}
	return nil
}
