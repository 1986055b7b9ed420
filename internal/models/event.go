package models

import "time"

// EventKind tags which source produced a timeline event
type EventKind int

const (
	EventCertificate EventKind = iota
	EventArchive
)

// String returns the short label used in the timeline
func (k EventKind) String() string {
	switch k {
	case EventCertificate:
		return "CERT"
	case EventArchive:
		return "ARCHIVE"
	default:
		return "UNKNOWN"
	}
}

// Event is one entry of the merged timeline. Exactly one of Certificate or
// Snapshot is set, matching Kind.
type Event struct {
	Kind        EventKind
	Time        time.Time
	Certificate *CertificateRecord
	Snapshot    *ArchiveSnapshot
}
