package store

// schemaVersion is stored in PRAGMA user_version. Bump it when a table's key changes.
const schemaVersion = 2

// Rows are keyed by their position in the source file, so records that repeat
// an ID are cached exactly as often as the file lists them.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS campaigns (
    file_path            TEXT NOT NULL,
    position             INTEGER NOT NULL,
    campaign_id          TEXT NOT NULL,
    name                 TEXT NOT NULL,
    goal                 REAL NOT NULL,
    raised               REAL NOT NULL,
    donors               INTEGER NOT NULL,
    start_date           TEXT,
    end_date             TEXT,
    category             TEXT,
    project_id           TEXT,
    source               TEXT,
    PRIMARY KEY (file_path, position)
);

CREATE TABLE IF NOT EXISTS donations (
    file_path            TEXT NOT NULL,
    position             INTEGER NOT NULL,
    donation_id          TEXT NOT NULL,
    donor_id             TEXT NOT NULL,
    campaign_id          TEXT,
    project_id           TEXT,
    amount               REAL NOT NULL,
    donated_at           TEXT,
    method               TEXT,
    recorded_by          TEXT,
    source               TEXT,
    PRIMARY KEY (file_path, position)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    parse_errors         INTEGER NOT NULL DEFAULT 0,
    parsed_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaigns_id ON campaigns(campaign_id);
CREATE INDEX IF NOT EXISTS idx_donations_id ON donations(file_path, donation_id);
CREATE INDEX IF NOT EXISTS idx_donations_campaign ON donations(campaign_id);
CREATE INDEX IF NOT EXISTS idx_donations_date ON donations(donated_at);
`

// migrateV1SQL moves a version-1 cache (rows keyed by record ID) to the current
// layout. Fixture rows are dropped and their files untracked so the next load
// re-parses them; intake donations are carried over.
const migrateV1SQL = `
ALTER TABLE campaigns RENAME TO campaigns_v1;
ALTER TABLE donations RENAME TO donations_v1;
DROP INDEX IF EXISTS idx_donations_campaign;
DROP INDEX IF EXISTS idx_donations_date;
` + schemaSQL + `
INSERT INTO donations
    (file_path, position, donation_id, donor_id, campaign_id, project_id, amount,
     donated_at, method, recorded_by, source)
SELECT file_path, position, donation_id, donor_id, campaign_id, project_id, amount,
       donated_at, method, recorded_by, source
FROM donations_v1 WHERE file_path = 'intake';
DROP TABLE campaigns_v1;
DROP TABLE donations_v1;
DELETE FROM file_tracker;
`
