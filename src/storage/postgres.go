package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger

	queue *writeQueue
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema is named after the executable
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: SchemaName(name),
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

// SchemaName keeps letters, digits and underscores so the name can be quoted
// safely. Everything else becomes an underscore.
func SchemaName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "telemetry_viewer"
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewStorageError("failed to open postgres", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewStorageError("failed to reach postgres", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("failed to create schema %s", d.Schema), err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.queue = newWriteQueue(d.Config.Storage.JournalQueueSize, d.insert, d.Logger)
	d.Logger.Info("PostgresDB journal initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."session_transitions" (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			event TEXT NOT NULL,
			detail TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewStorageError("failed to create session_transitions", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) insert(t models.MTransition) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."session_transitions" (session_id, from_state, to_state, event, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.Schema)
	_, err := d.DB.Exec(query, t.SessionID, string(t.From), string(t.To), t.Event, t.Detail, t.CreatedAt.UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Record(t models.MTransition) {
	if d.queue == nil {
		return
	}
	d.queue.push(t)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Recent(limit int) ([]models.MTransition, error) {
	if d.DB == nil {
		return nil, helpers.NewStorageError("journal not initialized", nil)
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT session_id, from_state, to_state, event, COALESCE(detail, ''), created_at
		FROM "%s"."session_transitions"
		ORDER BY id DESC
		LIMIT $1
	`, d.Schema)
	rows, err := d.DB.Query(query, limit)
	if err != nil {
		return nil, helpers.NewStorageError("failed to query transitions", err)
	}
	defer rows.Close()

	var out []models.MTransition
	for rows.Next() {
		var (
			t        models.MTransition
			from, to string
		)
		if err := rows.Scan(&t.SessionID, &from, &to, &t.Event, &t.Detail, &t.CreatedAt); err != nil {
			return nil, helpers.NewStorageError("failed to scan transition", err)
		}
		t.From = models.MState(from)
		t.To = models.MState(to)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewStorageError("failed to read transitions", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.queue != nil {
		d.queue.close()
	}
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
