package history

import (
	"sort"

	"github.com/thesavant42/webhist/internal/models"
)

// TimelineWindow is the number of trailing events the timeline section shows
const TimelineWindow = 20

// Merge builds the combined timeline, ascending by time.
// Certificates contribute their NotBefore; undated or inverted certificates
// and snapshots with unparsable timestamps are left out. On equal times a
// certificate event sorts before an archive event.
func Merge(certs []models.CertificateRecord, snapshots []models.ArchiveSnapshot) []models.Event {
	events := make([]models.Event, 0, len(certs)+len(snapshots))
	for i := range certs {
		if !certs[i].Dated() {
			continue
		}
		events = append(events, models.Event{
			Kind:        models.EventCertificate,
			Time:        certs[i].NotBeforeTime,
			Certificate: &certs[i],
		})
	}
	for i := range snapshots {
		if !snapshots[i].HasTime {
			continue
		}
		events = append(events, models.Event{
			Kind:     models.EventArchive,
			Time:     snapshots[i].Time,
			Snapshot: &snapshots[i],
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Time.Equal(events[j].Time) {
			return events[i].Time.Before(events[j].Time)
		}
		return events[i].Kind < events[j].Kind
	})
	return events
}

// Tail returns the last n events, keeping their ascending order
func Tail(events []models.Event, n int) []models.Event {
	if n < 0 || len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}

// ActivitySpan returns the range covered by a timeline, or nil for fewer than two events
func ActivitySpan(events []models.Event) *models.ActivitySpan {
	if len(events) < 2 {
		return nil
	}
	start := events[0].Time
	end := events[len(events)-1].Time
	return &models.ActivitySpan{
		Start: start,
		End:   end,
		Days:  wholeDays(end.Sub(start)),
	}
}
