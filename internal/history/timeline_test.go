package history

import (
	"testing"
	"time"

	"github.com/thesavant42/webhist/internal/models"
)

// cert builds a certificate record the way the normalizer would
func cert(issuer, cn, sans, notBefore, notAfter string) models.CertificateRecord {
	c := models.CertificateRecord{
		IssuerName: issuer,
		CommonName: cn,
		NameValue:  sans,
		NotBefore:  notBefore,
		NotAfter:   notAfter,
	}
	c.NotBeforeTime, c.HasNotBefore = ParseCertDate(notBefore)
	c.NotAfterTime, c.HasNotAfter = ParseCertDate(notAfter)
	return c
}

func snapshot(ts, url, status string) models.ArchiveSnapshot {
	s := models.ArchiveSnapshot{Timestamp: ts, URL: url, MimeType: "text/html", HTTPStatus: status}
	s.Time, s.HasTime = ParseArchiveTimestamp(ts)
	return s
}

func TestMergeOrdering(t *testing.T) {
	certs := []models.CertificateRecord{
		cert("B", "b.example.com", "", "2022-05-01T00:00:00", "2022-08-01T00:00:00"),
		cert("A", "a.example.com", "", "2021-01-01T00:00:00", "2021-04-01T00:00:00"),
		cert("X", "undated.example.com", "", "nope", "2021-04-01T00:00:00"),
		cert("I", "inverted.example.com", "", "2023-01-01T00:00:00", "2022-01-01T00:00:00"),
	}
	snaps := []models.ArchiveSnapshot{
		snapshot("20220501000000", "http://example.com/same-time", "200"),
		snapshot("20200101000000", "http://example.com/oldest", "200"),
		snapshot("bad", "http://example.com/bad", "200"),
	}

	events := Merge(certs, snaps)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4 (undated, inverted and unparsable records excluded)", len(events))
	}

	for i := 1; i < len(events); i++ {
		if events[i].Time.Before(events[i-1].Time) {
			t.Fatalf("timeline not ascending at %d: %v before %v", i, events[i].Time, events[i-1].Time)
		}
	}

	if events[0].Kind != models.EventArchive || events[0].Snapshot.URL != "http://example.com/oldest" {
		t.Errorf("first event = %+v, want the 2020 snapshot", events[0])
	}
	// equal times: certificate first
	if events[2].Kind != models.EventCertificate || events[3].Kind != models.EventArchive {
		t.Errorf("tie at 2022-05-01 ordered %v, %v; want CERT then ARCHIVE", events[2].Kind, events[3].Kind)
	}
}

func TestMergeStableWithinKind(t *testing.T) {
	snaps := []models.ArchiveSnapshot{
		snapshot("20200101000000", "http://example.com/1", "200"),
		snapshot("20200101000000", "http://example.com/2", "200"),
		snapshot("20200101000000", "http://example.com/3", "200"),
	}
	events := Merge(nil, snaps)
	for i, e := range events {
		if want := snaps[i].URL; e.Snapshot.URL != want {
			t.Errorf("event %d = %s, want %s (input order kept)", i, e.Snapshot.URL, want)
		}
	}
}

func TestTail(t *testing.T) {
	events := make([]models.Event, 25)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range events {
		events[i] = models.Event{Kind: models.EventArchive, Time: base.AddDate(0, 0, i)}
	}

	got := Tail(events, TimelineWindow)
	if len(got) != TimelineWindow {
		t.Fatalf("Tail returned %d events, want %d", len(got), TimelineWindow)
	}
	if !got[0].Time.Equal(base.AddDate(0, 0, 5)) || !got[19].Time.Equal(base.AddDate(0, 0, 24)) {
		t.Errorf("Tail kept the wrong window: %v .. %v", got[0].Time, got[19].Time)
	}

	if short := Tail(events[:3], TimelineWindow); len(short) != 3 {
		t.Errorf("Tail of 3 events = %d, want 3", len(short))
	}
}

func TestActivitySpan(t *testing.T) {
	if span := ActivitySpan(nil); span != nil {
		t.Errorf("ActivitySpan(nil) = %+v, want nil", span)
	}

	one := Merge(nil, []models.ArchiveSnapshot{snapshot("20200101000000", "u", "200")})
	if span := ActivitySpan(one); span != nil {
		t.Errorf("ActivitySpan of one event = %+v, want nil", span)
	}

	events := Merge(
		[]models.CertificateRecord{cert("A", "example.com", "", "2020-01-01T00:00:00", "2020-04-01T00:00:00")},
		[]models.ArchiveSnapshot{snapshot("20211231120000", "u", "200")},
	)
	span := ActivitySpan(events)
	if span == nil {
		t.Fatal("ActivitySpan = nil, want a span")
	}
	if span.Days != 730 {
		t.Errorf("span.Days = %d, want 730", span.Days)
	}
}
