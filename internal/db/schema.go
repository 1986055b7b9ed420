package db

const createInvestigationsTable = `
CREATE TABLE IF NOT EXISTS investigations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL,
    query_type TEXT NOT NULL,
    report TEXT NOT NULL,
    certificate_count INTEGER NOT NULL DEFAULT 0,
    snapshot_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_investigations_domain ON investigations(domain);
CREATE INDEX IF NOT EXISTS idx_investigations_created ON investigations(created_at);
`

const insertInvestigation = `
INSERT INTO investigations (
    domain, query_type, report, certificate_count, snapshot_count, created_at
) VALUES (?, ?, ?, ?, ?, ?)
`

// Filter params: domain twice (empty matches all), then limit, offset
const selectInvestigationsByFilter = `
SELECT id, domain, query_type, report, certificate_count, snapshot_count, created_at
FROM investigations
WHERE (? = '' OR domain = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`

const selectInvestigationCountFiltered = `
SELECT COUNT(*) FROM investigations WHERE (? = '' OR domain = ?)
`

const selectInvestigationByID = `
SELECT id, domain, query_type, report, certificate_count, snapshot_count, created_at
FROM investigations
WHERE id = ?
`

const selectInvestigatedDomains = `
SELECT domain, COUNT(*) AS runs, MAX(created_at) AS last_run
FROM investigations
GROUP BY domain
ORDER BY last_run DESC
`

const deleteInvestigationsBefore = `
DELETE FROM investigations WHERE created_at < ?
`
