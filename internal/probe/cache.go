package probe

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"fermata/pkg/models"
)

// Cache persists probe results in SQLite so reruns over an unchanged
// collection skip decoding. A row is valid while the file's size and
// mtime match; anything else is treated as a miss. All cache failures
// degrade to uncached probing, they never fail a scan.
type Cache struct {
	conn   *sql.DB
	logger *logrus.Logger

	lookupStmt *sql.Stmt
	storeStmt  *sql.Stmt
}

// OpenCache opens (or creates) the probe cache at the provided path and
// ensures the schema exists. Caller should Close() it when finished.
func OpenCache(dbPath string, logger *logrus.Logger) (*Cache, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open probe cache: %w", err)
	}

	// SQLite works better with fewer connections
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS probes (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mtime INTEGER NOT NULL,
		format INTEGER NOT NULL,
		bitrate_kbps INTEGER NOT NULL,
		duration_secs REAL NOT NULL,
		sample_rate INTEGER NOT NULL,
		channels INTEGER NOT NULL
	);`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create probe cache schema: %w", err)
	}

	cache := &Cache{conn: conn, logger: logger}
	if cache.lookupStmt, err = conn.Prepare(
		`SELECT format, bitrate_kbps, duration_secs, sample_rate, channels
		 FROM probes WHERE path = ? AND size = ? AND mtime = ?`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare lookup: %w", err)
	}
	if cache.storeStmt, err = conn.Prepare(
		`INSERT INTO probes (path, size, mtime, format, bitrate_kbps, duration_secs, sample_rate, channels)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			size = excluded.size, mtime = excluded.mtime, format = excluded.format,
			bitrate_kbps = excluded.bitrate_kbps, duration_secs = excluded.duration_secs,
			sample_rate = excluded.sample_rate, channels = excluded.channels`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare store: %w", err)
	}

	logger.WithField("cache_path", dbPath).Debug("Probe cache opened")
	return cache, nil
}

// Lookup returns the cached properties when size and mtime still match.
func (c *Cache) Lookup(path string, size, mtime int64) (models.AudioProperties, bool) {
	var (
		format   int
		props    models.AudioProperties
		duration float64
	)
	err := c.lookupStmt.QueryRow(path, size, mtime).Scan(
		&format, &props.BitrateKbps, &duration, &props.SampleRate, &props.Channels)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.WithError(err).WithField("path", path).Warn("Probe cache lookup failed")
		}
		return models.AudioProperties{}, false
	}
	props.Format = models.Format(format)
	props.DurationSecs = duration
	props.FileSizeBytes = size
	return props, true
}

// Store upserts one probe result; failures are logged and swallowed.
func (c *Cache) Store(path string, size, mtime int64, props models.AudioProperties) {
	_, err := c.storeStmt.Exec(path, size, mtime,
		int(props.Format), props.BitrateKbps, props.DurationSecs, props.SampleRate, props.Channels)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Probe cache store failed")
	}
}

// Prune removes rows for files that no longer exist on disk.
func (c *Cache) Prune() {
	rows, err := c.conn.Query(`SELECT path FROM probes`)
	if err != nil {
		c.logger.WithError(err).Warn("Probe cache prune query failed")
		return
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			stale = append(stale, path)
		}
	}
	for _, path := range stale {
		if _, err := c.conn.Exec(`DELETE FROM probes WHERE path = ?`, path); err != nil {
			c.logger.WithError(err).WithField("path", path).Warn("Probe cache prune failed")
		}
	}
	if len(stale) > 0 {
		c.logger.WithField("pruned", len(stale)).Debug("Probe cache pruned stale entries")
	}
}

// Close releases prepared statements and the underlying connection.
func (c *Cache) Close() error {
	if c.lookupStmt != nil {
		c.lookupStmt.Close()
	}
	if c.storeStmt != nil {
		c.storeStmt.Close()
	}
	return c.conn.Close()
}
