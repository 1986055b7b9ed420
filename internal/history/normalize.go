package history

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/thesavant42/webhist/internal/models"
)

// certDateLayouts are the timestamp shapes crt.sh has been seen to publish.
// Values without a zone are UTC.
var certDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseCertDate parses a certificate-log date. ok is false when no layout matches.
func ParseCertDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range certDateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseArchiveTimestamp parses a 14-digit CDX timestamp as UTC
func ParseArchiveTimestamp(s string) (t time.Time, ok bool) {
	if len(s) != len(models.CDXTimestampLayout) {
		return time.Time{}, false
	}
	parsed, err := time.Parse(models.CDXTimestampLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// NormalizeCertificates maps a crt.sh JSON array onto certificate records.
// Every source object yields one record; a body that is not a JSON array of
// objects yields no records.
func NormalizeCertificates(raw []byte) []models.CertificateRecord {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	records := make([]models.CertificateRecord, 0, len(entries))
	for _, entry := range entries {
		rec := models.CertificateRecord{
			IssuerName: stringField(entry, "issuer_name"),
			CommonName: stringField(entry, "common_name"),
			NameValue:  stringField(entry, "name_value"),
			NotBefore:  stringField(entry, "not_before"),
			NotAfter:   stringField(entry, "not_after"),
		}
		rec.NotBeforeTime, rec.HasNotBefore = ParseCertDate(rec.NotBefore)
		rec.NotAfterTime, rec.HasNotAfter = ParseCertDate(rec.NotAfter)
		records = append(records, rec)
	}
	return records
}

// NormalizeArchive maps a CDX JSON response onto snapshots.
// Element 0 is the header row and is always dropped; fewer than two rows
// means there is no data. Rows are read positionally:
// [id, timestamp, url, mime_type, http_status, ...].
func NormalizeArchive(raw []byte) []models.ArchiveSnapshot {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil || len(rows) < 2 {
		return nil
	}

	snapshots := make([]models.ArchiveSnapshot, 0, len(rows)-1)
	for _, rawRow := range rows[1:] {
		var cells []json.RawMessage
		// A row that is not an array still counts, with every field empty
		_ = json.Unmarshal(rawRow, &cells)

		snap := models.ArchiveSnapshot{
			Timestamp:  strings.TrimSpace(cell(cells, 1)),
			URL:        cell(cells, 2),
			MimeType:   cell(cells, 3),
			HTTPStatus: cell(cells, 4),
		}
		snap.Time, snap.HasTime = ParseArchiveTimestamp(snap.Timestamp)
		snapshots = append(snapshots, snap)
	}
	return snapshots
}

func stringField(entry map[string]json.RawMessage, key string) string {
	raw, ok := entry[key]
	if !ok {
		return ""
	}
	return jsonText(raw)
}

func cell(cells []json.RawMessage, i int) string {
	if i >= len(cells) {
		return ""
	}
	return jsonText(cells[i])
}

// jsonText renders a JSON value as text: strings unquoted, null as "",
// anything else as its literal JSON.
func jsonText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
