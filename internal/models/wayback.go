package models

import "time"

// CDXTimestampLayout is the 14-digit Wayback timestamp format: YYYYMMDDhhmmss
const CDXTimestampLayout = "20060102150405"

// ArchiveSnapshot represents one Wayback Machine CDX capture row
type ArchiveSnapshot struct {
	Timestamp  string // 14-digit format, UTC
	URL        string
	MimeType   string
	HTTPStatus string

	Time    time.Time
	HasTime bool
}

// Year returns the capture year, or "" when the timestamp did not parse
func (s ArchiveSnapshot) Year() string {
	if !s.HasTime {
		return ""
	}
	return s.Timestamp[:4]
}
