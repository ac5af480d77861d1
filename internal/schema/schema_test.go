package schema

import (
	"encoding/json"
	"testing"
	"time"

	"sparkifyetl/pkg/records"
)

func TestSongFromRecord(t *testing.T) {
	r := records.Record{
		"song_id":          "SOSKA",
		"title":            "Skazka",
		"artist_id":        "AR_X",
		"artist_name":      "Xavia",
		"artist_location":  "Oslo",
		"artist_latitude":  json.Number("59.91"),
		"artist_longitude": json.Number("10.75"),
		"duration":         json.Number("200.0"),
		"year":             json.Number("2000"),
	}
	s, err := SongFromRecord(r)
	if err != nil {
		t.Fatalf("SongFromRecord: %v", err)
	}
	if s.SongID != "SOSKA" || s.ArtistID != "AR_X" || s.Duration != 200.0 {
		t.Errorf("unexpected song: %+v", s)
	}
	if s.Year == nil || *s.Year != 2000 {
		t.Errorf("year = %v, want 2000", s.Year)
	}
	if s.ArtistLat == nil || *s.ArtistLat != 59.91 {
		t.Errorf("latitude = %v", s.ArtistLat)
	}
}

func TestSongFromRecordNullYear(t *testing.T) {
	for _, year := range []any{json.Number("0"), "not-a-year", nil} {
		r := records.Record{"song_id": "S1", "artist_id": "A1", "year": year}
		s, err := SongFromRecord(r)
		if err != nil {
			t.Fatalf("year=%v: %v", year, err)
		}
		if s.Year != nil {
			t.Errorf("year=%v should coerce to nil, got %d", year, *s.Year)
		}
	}
}

func TestSongFromRecordMissingKeys(t *testing.T) {
	if _, err := SongFromRecord(records.Record{"title": "x"}); err == nil {
		t.Errorf("missing song_id should be rejected")
	}
	if _, err := SongFromRecord(records.Record{"song_id": "S1"}); err == nil {
		t.Errorf("missing artist_id should be rejected")
	}
}

func TestEventFromRecord(t *testing.T) {
	r := records.Record{
		"page":      "NextSong",
		"ts":        json.Number("1541903636796"),
		"userId":    "10",
		"firstName": "Sylvie",
		"lastName":  "Cruz",
		"gender":    "F",
		"level":     "free",
		"sessionId": json.Number("345"),
		"song":      "Skazka",
		"artist":    "Xavia",
		"length":    json.Number("200.0"),
		"location":  "San Jose",
		"userAgent": "Mozilla/5.0",
	}
	e, err := EventFromRecord(r)
	if err != nil {
		t.Fatalf("EventFromRecord: %v", err)
	}
	if !e.IsPlay() {
		t.Errorf("page NextSong should be a play")
	}
	if e.UserID == nil || *e.UserID != 10 {
		t.Errorf("userId = %v, want 10", e.UserID)
	}
	want := time.UnixMilli(1541903636796).UTC()
	if !e.Start.Equal(want) || e.Start.Location() != time.UTC {
		t.Errorf("start = %v, want %v (UTC)", e.Start, want)
	}
	if e.SessionID != 345 || e.Length == nil || *e.Length != 200.0 {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestEventFromRecordAnonymous(t *testing.T) {
	r := records.Record{"page": "Home", "ts": json.Number("1000"), "userId": ""}
	e, err := EventFromRecord(r)
	if err != nil {
		t.Fatalf("EventFromRecord: %v", err)
	}
	if e.UserID != nil {
		t.Errorf("empty userId should coerce to nil, got %d", *e.UserID)
	}
	if e.IsPlay() {
		t.Errorf("page Home must not be a play")
	}
}

func TestEventFromRecordBadTS(t *testing.T) {
	for _, ts := range []any{nil, "oops", json.Number("-5")} {
		if _, err := EventFromRecord(records.Record{"page": "NextSong", "ts": ts}); err == nil {
			t.Errorf("ts=%v should be a contract violation", ts)
		}
	}
}

func TestPlays(t *testing.T) {
	events := []EventRecord{
		{TS: 1, Page: PageNextSong},
		{TS: 2, Page: "Home"},
		{TS: 3, Page: PageNextSong},
	}
	got := Plays(events)
	if len(got) != 2 || got[0].TS != 1 || got[1].TS != 3 {
		t.Fatalf("Plays = %+v", got)
	}
}

func TestPartitionPaths(t *testing.T) {
	y := int32(2000)
	if p := (SongRow{SongID: "S", ArtistID: "AR_X", Year: &y}).Partition(); p != "year=2000/artist_id=AR_X" {
		t.Errorf("song partition = %q", p)
	}
	if p := (SongRow{SongID: "S", ArtistID: "AR_X"}).Partition(); p != "year="+NullPartition+"/artist_id=AR_X" {
		t.Errorf("null-year song partition = %q", p)
	}
	if p := (TimeRow{Year: 2018, Month: 11}).Partition(); p != "year=2018/month=11" {
		t.Errorf("time partition = %q", p)
	}
	if p := (UserRow{UserID: 1}).Partition(); p != "" {
		t.Errorf("users partition = %q, want unpartitioned", p)
	}
	if p := (ArtistRow{ArtistID: "A"}).Partition(); p != "" {
		t.Errorf("artists partition = %q, want unpartitioned", p)
	}
}

func TestPartitionColumns(t *testing.T) {
	cases := map[string][]string{
		TableSongs:     {"year", "artist_id"},
		TableArtists:   nil,
		TableTime:      {"year", "month"},
		TableUsers:     nil,
		TableSongplays: {"year", "month"},
	}
	for table, want := range cases {
		got := PartitionColumns(table)
		if len(got) != len(want) {
			t.Errorf("%s: partition columns %v, want %v", table, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s: partition columns %v, want %v", table, got, want)
			}
		}
	}
}
