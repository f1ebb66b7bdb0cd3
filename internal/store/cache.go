// Package store provides a SQLite-backed cache for parsed fixture files and intake donations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kanyini-os/kanyini/internal/intake"
	"github.com/kanyini-os/kanyini/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// IntakeSource is the synthetic file path under which submitted donations are stored.
const IntakeSource = "intake"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Cache provides SQLite-backed fixture caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

// migrate creates the schema, upgrading a cache written by an older version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version == schemaVersion {
		_, err := db.Exec(schemaSQL)
		if err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
		return nil
	}

	var legacy int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'donations'").Scan(&legacy); err != nil {
		return fmt.Errorf("inspecting schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ddl := schemaSQL
	if legacy > 0 {
		ddl = migrateV1SQL
	}
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("migrating schema to v%d: %w", schemaVersion, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs     int64
	SizeBytes   int64
	ParseErrors int
}

// FileRecords holds everything cached for one fixture file.
type FileRecords struct {
	Campaigns   []model.Campaign
	Donations   []model.Donation
	ParseErrors int
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, parse_errors FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.ParseErrors); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces the cached records for a fixture file and updates its tracking info.
func (c *Cache) SaveFile(path string, recs FileRecords, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM campaigns WHERE file_path = ?", path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM donations WHERE file_path = ?", path); err != nil {
		return err
	}

	for i, cp := range recs.Campaigns {
		if err := insertCampaign(tx, path, i, cp); err != nil {
			return fmt.Errorf("caching campaign %s: %w", cp.ID, err)
		}
	}
	for i, d := range recs.Donations {
		if err := insertDonation(tx, path, i, d); err != nil {
			return fmt.Errorf("caching donation %s: %w", d.ID, err)
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes, parse_errors, parsed_at)
		VALUES (?, ?, ?, ?, ?)`, path, mtimeNs, sizeBytes, recs.ParseErrors, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertCampaign(tx execer, path string, pos int, cp model.Campaign) error {
	_, err := tx.Exec(`INSERT INTO campaigns
		(file_path, position, campaign_id, name, goal, raised, donors, start_date, end_date,
		 category, project_id, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		path, pos, cp.ID, cp.Name, cp.Goal, cp.Raised, cp.Donors, formatTime(cp.StartDate), formatTime(cp.EndDate),
		cp.Category, cp.ProjectID, cp.Source,
	)
	return err
}

func insertDonation(tx execer, path string, pos int, d model.Donation) error {
	_, err := tx.Exec(`INSERT INTO donations
		(file_path, position, donation_id, donor_id, campaign_id, project_id, amount, donated_at,
		 method, recorded_by, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		path, pos, d.ID, d.DonorID, d.CampaignID, d.ProjectID, d.Amount, formatTime(d.Date),
		d.Method, d.RecordedBy, d.Source,
	)
	return err
}

// LoadAll reads every cached fixture file's records, keyed by file path.
// Intake donations are returned under IntakeSource.
func (c *Cache) LoadAll() (map[string]*FileRecords, error) {
	out := make(map[string]*FileRecords)
	get := func(path string) *FileRecords {
		fr, ok := out[path]
		if !ok {
			fr = &FileRecords{}
			out[path] = fr
		}
		return fr
	}

	rows, err := c.db.Query(`SELECT
		file_path, campaign_id, name, goal, raised, donors, start_date, end_date,
		category, project_id, source
		FROM campaigns ORDER BY file_path, position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var path string
		var cp model.Campaign
		var start, end, category, project, source sql.NullString
		if err := rows.Scan(&path, &cp.ID, &cp.Name, &cp.Goal, &cp.Raised, &cp.Donors,
			&start, &end, &category, &project, &source); err != nil {
			return nil, err
		}
		cp.StartDate = parseTime(start)
		cp.EndDate = parseTime(end)
		cp.Category = category.String
		cp.ProjectID = project.String
		cp.Source = source.String
		fr := get(path)
		fr.Campaigns = append(fr.Campaigns, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drows, err := c.db.Query(`SELECT
		file_path, donation_id, donor_id, campaign_id, project_id, amount, donated_at,
		method, recorded_by, source
		FROM donations ORDER BY file_path, position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = drows.Close() }()

	for drows.Next() {
		var path string
		d, err := scanDonation(drows, &path)
		if err != nil {
			return nil, err
		}
		fr := get(path)
		fr.Donations = append(fr.Donations, d)
	}
	if err := drows.Err(); err != nil {
		return nil, err
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		return nil, err
	}
	for path, fi := range tracked {
		get(path).ParseErrors = fi.ParseErrors
	}

	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDonation(row scanner, path *string) (model.Donation, error) {
	var d model.Donation
	var campaign, project, date, method, recordedBy, source sql.NullString
	if err := row.Scan(path, &d.ID, &d.DonorID, &campaign, &project, &d.Amount, &date,
		&method, &recordedBy, &source); err != nil {
		return d, err
	}
	d.CampaignID = campaign.String
	d.ProjectID = project.String
	d.Date = parseTime(date)
	d.Method = method.String
	d.RecordedBy = recordedBy.String
	d.Source = source.String
	return d, nil
}

// SubmitDonation stores a donation recorded through intake.
// A donation with an ID that already exists in intake is rejected with intake.ErrRejected.
func (c *Cache) SubmitDonation(ctx context.Context, d model.Donation) error {
	var n int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM donations WHERE file_path = ? AND donation_id = ?", IntakeSource, d.ID).Scan(&n)
	if err != nil {
		return fmt.Errorf("checking donation %s: %w", d.ID, err)
	}
	if n > 0 {
		return fmt.Errorf("donation %s already recorded: %w", d.ID, intake.ErrRejected)
	}

	var pos int
	if err := c.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM donations WHERE file_path = ?", IntakeSource).Scan(&pos); err != nil {
		return fmt.Errorf("counting intake donations: %w", err)
	}

	if d.Source == "" {
		d.Source = IntakeSource
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO donations
		(file_path, position, donation_id, donor_id, campaign_id, project_id, amount, donated_at,
		 method, recorded_by, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		IntakeSource, pos, d.ID, d.DonorID, d.CampaignID, d.ProjectID, d.Amount, formatTime(d.Date),
		d.Method, d.RecordedBy, d.Source,
	)
	if err != nil {
		return fmt.Errorf("storing donation %s: %w", d.ID, err)
	}
	return nil
}

// IntakeDonations returns donations submitted through intake, oldest first.
func (c *Cache) IntakeDonations(ctx context.Context) ([]model.Donation, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT
		file_path, donation_id, donor_id, campaign_id, project_id, amount, donated_at,
		method, recorded_by, source
		FROM donations WHERE file_path = ? ORDER BY position`, IntakeSource)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Donation
	for rows.Next() {
		var path string
		d, err := scanDonation(rows, &path)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDonation looks up a donation by ID across all sources.
func (c *Cache) GetDonation(ctx context.Context, id string) (model.Donation, error) {
	row := c.db.QueryRowContext(ctx, `SELECT
		file_path, donation_id, donor_id, campaign_id, project_id, amount, donated_at,
		method, recorded_by, source
		FROM donations WHERE donation_id = ? LIMIT 1`, id)
	var path string
	d, err := scanDonation(row, &path)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Donation{}, ErrNotFound
	}
	return d, err
}

// DeleteFile removes a fixture file's cached records and tracking entry.
func (c *Cache) DeleteFile(path string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		"DELETE FROM campaigns WHERE file_path = ?",
		"DELETE FROM donations WHERE file_path = ?",
		"DELETE FROM file_tracker WHERE file_path = ?",
	} {
		if _, err := tx.Exec(q, path); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Counts returns the number of cached campaigns and donations, intake included.
func (c *Cache) Counts() (campaigns, donations int, err error) {
	if err = c.db.QueryRow("SELECT COUNT(*) FROM campaigns").Scan(&campaigns); err != nil {
		return 0, 0, err
	}
	err = c.db.QueryRow("SELECT COUNT(*) FROM donations").Scan(&donations)
	return campaigns, donations, err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}
