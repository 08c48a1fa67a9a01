package store

import (
	"database/sql"
	"fmt"
	"time"

	"boxdsync/internal/models"
	"boxdsync/internal/shared"
)

// RecordRepository persists imported watch records and their sync state.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new RecordRepository with the given database connection
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create inserts a new [models.WatchRecord] with generated ID and sequence
func (r *RecordRepository) Create(rec *models.WatchRecord) error {
	sequence, err := NextSequence(r.db, "watch_records")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	rec.ID = shared.GenerateID()
	rec.Sequence = sequence

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `
		INSERT INTO watch_records (id, sequence, title, year, rating, watched_date, remote_rating, remote_watched_at, status, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		rec.ID,
		rec.Sequence,
		rec.Title,
		rec.Year,
		rec.Rating,
		rec.WatchedDate,
		nullInt(rec.RemoteRating),
		nullTime(rec.RemoteWatchedAt),
		rec.Status.String(),
		rec.LastError,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Get retrieves a record by ID
func (r *RecordRepository) Get(id string) (*models.WatchRecord, error) {
	query := selectColumns + ` WHERE id = ?`
	return scanRecord(r.db.QueryRow(query, id))
}

// GetByKey retrieves a record by its title and release year
func (r *RecordRepository) GetByKey(title string, year int) (*models.WatchRecord, error) {
	query := selectColumns + ` WHERE title = ? AND year = ? LIMIT 1`
	return scanRecord(r.db.QueryRow(query, title, year))
}

// Save writes a record's mutable sync state back to the database.
// Satisfies the engine's persistence hook.
func (r *RecordRepository) Save(rec *models.WatchRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE watch_records
		SET rating = ?, watched_date = ?, remote_rating = ?, remote_watched_at = ?, status = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		rec.Rating,
		rec.WatchedDate,
		nullInt(rec.RemoteRating),
		nullTime(rec.RemoteWatchedAt),
		rec.Status.String(),
		rec.LastError,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: record %s", shared.ErrNotFound, rec.ID)
	}

	return nil
}

// List retrieves records ordered by import sequence, optionally filtered by status.
// An empty status returns everything.
func (r *RecordRepository) List(status string) ([]*models.WatchRecord, error) {
	query := selectColumns
	args := []any{}

	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*models.WatchRecord
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// CountByStatus returns record counts keyed by status string.
func (r *RecordRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM watch_records GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

// Clear deletes all records and resets the sequence counter.
func (r *RecordRepository) Clear() error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM watch_records"); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if _, err := tx.Exec("UPDATE watch_records_sequence SET value = 0 WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to reset sequence: %w", err)
	}

	return tx.Commit()
}

const selectColumns = `
	SELECT id, sequence, title, year, rating, watched_date, remote_rating, remote_watched_at, status, last_error, created_at, updated_at
	FROM watch_records
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row *sql.Row) (*models.WatchRecord, error) {
	rec, err := scanFields(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: record", shared.ErrNotFound)
	}
	return rec, err
}

func scanRecordRow(rows *sql.Rows) (*models.WatchRecord, error) {
	return scanFields(rows)
}

func scanFields(s rowScanner) (*models.WatchRecord, error) {
	var (
		rec             models.WatchRecord
		rating          sql.NullInt64
		remoteWatchedAt sql.NullTime
		status          string
	)

	err := s.Scan(
		&rec.ID,
		&rec.Sequence,
		&rec.Title,
		&rec.Year,
		&rec.Rating,
		&rec.WatchedDate,
		&rating,
		&remoteWatchedAt,
		&status,
		&rec.LastError,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	if rating.Valid {
		v := int(rating.Int64)
		rec.RemoteRating = &v
	}
	if remoteWatchedAt.Valid {
		t := remoteWatchedAt.Time
		rec.RemoteWatchedAt = &t
	}

	parsed, err := models.ParseSyncStatus(status)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	rec.Status = parsed

	return &rec, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
