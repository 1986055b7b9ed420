package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thesavant42/webhist/internal/models"

	_ "modernc.org/sqlite"
)

// DefaultListLimit caps GetInvestigations when the filter sets no limit
const DefaultListLimit = 50

// timestampLayout sorts lexically in the same order as time
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a lookup by ID matches nothing
var ErrNotFound = errors.New("investigation not found")

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec(createInvestigationsTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create investigations schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertInvestigation logs one engine run and returns its row ID.
// A zero CreatedAt is stamped with the current time.
func (db *DB) InsertInvestigation(inv models.Investigation) (int64, error) {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}

	result, err := db.conn.Exec(insertInvestigation,
		inv.Domain,
		inv.QueryType,
		inv.Report,
		inv.CertificateCount,
		inv.SnapshotCount,
		inv.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert investigation for %s: %w", inv.Domain, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read investigation id: %w", err)
	}
	return id, nil
}

// GetInvestigations lists logged runs, newest first, with the total number
// of rows matching the filter
func (db *DB) GetInvestigations(filter models.InvestigationFilter) ([]models.Investigation, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var total int
	err := db.conn.QueryRow(selectInvestigationCountFiltered, filter.Domain, filter.Domain).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count investigations: %w", err)
	}

	rows, err := db.conn.Query(selectInvestigationsByFilter, filter.Domain, filter.Domain, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query investigations: %w", err)
	}
	defer rows.Close()

	var investigations []models.Investigation
	for rows.Next() {
		inv, err := scanInvestigation(rows)
		if err != nil {
			return nil, 0, err
		}
		investigations = append(investigations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate investigations: %w", err)
	}

	return investigations, total, nil
}

// GetInvestigation returns one logged run by ID
func (db *DB) GetInvestigation(id int64) (models.Investigation, error) {
	inv, err := scanInvestigation(db.conn.QueryRow(selectInvestigationByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Investigation{}, ErrNotFound
	}
	return inv, err
}

// GetInvestigatedDomains summarizes how often each domain was investigated
func (db *DB) GetInvestigatedDomains() ([]models.DomainSummary, error) {
	rows, err := db.conn.Query(selectInvestigatedDomains)
	if err != nil {
		return nil, fmt.Errorf("failed to query investigated domains: %w", err)
	}
	defer rows.Close()

	var domains []models.DomainSummary
	for rows.Next() {
		var d models.DomainSummary
		var lastRun string
		if err := rows.Scan(&d.Domain, &d.Runs, &lastRun); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		if d.LastRun, err = parseTimestamp(lastRun); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

// PruneBefore deletes runs logged before cutoff and returns how many were removed
func (db *DB) PruneBefore(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(deleteInvestigationsBefore, cutoff.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune investigations: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvestigation(row rowScanner) (models.Investigation, error) {
	var inv models.Investigation
	var createdAt string
	err := row.Scan(
		&inv.ID,
		&inv.Domain,
		&inv.QueryType,
		&inv.Report,
		&inv.CertificateCount,
		&inv.SnapshotCount,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return inv, err
	}
	if err != nil {
		return inv, fmt.Errorf("failed to scan investigation: %w", err)
	}

	if inv.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return inv, err
	}
	return inv, nil
}

// parseTimestamp parses SQLite timestamp formats
func parseTimestamp(ts string) (time.Time, error) {
	formats := []string{
		timestampLayout,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", ts)
}
