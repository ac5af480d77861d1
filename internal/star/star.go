// Package star derives the five analytical tables from the loaded catalog
// and event streams.
//
// Every builder in this package is a pure function over in-memory slices:
// no storage, no clocks, no shared state. That keeps the transformation
// rules testable without any collaborator and leaves physical concerns
// (partitioned writes, object storage) to internal/storage.
//
// Dimension rules:
//
//   - songs / artists: project from the catalog, de-duplicate by primary
//     key keeping the first occurrence. Non-key attributes are assumed
//     invariant per key; CheckInvariantAttrs lets tests assert that
//     instead of relying on input ordering.
//   - time: distinct instants from song-play events, decomposed in UTC.
//   - users: grouped over every event carrying a user id, the level taken
//     from the chronologically last event. Song plays and other app
//     actions both move the clock forward: a user who upgraded and then
//     only browsed is still "paid".
//   - songplays (fact): one row per song-play event, song/artist ids
//     resolved by (title, artist name, duration) against the catalog,
//     unresolved events kept with null ids.
package star

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/unicode/norm"

	"sparkifyetl/internal/schema"
)

// Tables holds one complete derived star schema.
type Tables struct {
	Songs     []schema.SongRow
	Artists   []schema.ArtistRow
	Time      []schema.TimeRow
	Users     []schema.UserRow
	Songplays []schema.SongplayRow
}

// Songs projects and de-duplicates the songs dimension from the catalog.
func Songs(catalog []schema.SongRecord) []schema.SongRow {
	seen := make(map[string]struct{}, len(catalog))
	out := make([]schema.SongRow, 0, len(catalog))
	for _, c := range catalog {
		if _, dup := seen[c.SongID]; dup {
			continue
		}
		seen[c.SongID] = struct{}{}
		out = append(out, schema.SongRow{
			SongID:   c.SongID,
			Title:    c.Title,
			ArtistID: c.ArtistID,
			Year:     c.Year,
			Duration: c.Duration,
		})
	}
	return out
}

// Artists projects and de-duplicates the artists dimension from the catalog.
func Artists(catalog []schema.SongRecord) []schema.ArtistRow {
	seen := make(map[string]struct{}, len(catalog))
	out := make([]schema.ArtistRow, 0, len(catalog))
	for _, c := range catalog {
		if _, dup := seen[c.ArtistID]; dup {
			continue
		}
		seen[c.ArtistID] = struct{}{}
		out = append(out, schema.ArtistRow{
			ArtistID:  c.ArtistID,
			Name:      c.ArtistName,
			Location:  c.ArtistLocation,
			Latitude:  c.ArtistLat,
			Longitude: c.ArtistLon,
		})
	}
	return out
}

// Time builds the time dimension from song-play events: one row per
// distinct instant, decomposed in UTC. Rows are sorted by instant so the
// output is deterministic for a given input set.
//
// Weekday follows the 1..7 Sunday-first convention of the warehouse this
// schema originated in; hour is 0..23, day 1..31, week is the ISO week.
func Time(plays []schema.EventRecord) []schema.TimeRow {
	seen := make(map[int64]struct{}, len(plays))
	out := make([]schema.TimeRow, 0, len(plays))
	for _, e := range plays {
		if _, dup := seen[e.TS]; dup {
			continue
		}
		seen[e.TS] = struct{}{}
		out = append(out, DecomposeInstant(e.TS))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// DecomposeInstant expands an epoch-millisecond instant into its calendar
// sub-fields. It is a pure function: the same instant always yields the
// same row.
func DecomposeInstant(ts int64) schema.TimeRow {
	t := timeOf(ts)
	_, week := t.ISOWeek()
	return schema.TimeRow{
		StartTime: ts,
		Hour:      int32(t.Hour()),
		Day:       int32(t.Day()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   int32(t.Weekday()) + 1,
	}
}

// Users builds the users dimension. All events participate, not only song
// plays; events without a user id are ignored. For each user the level
// comes from the event with the maximum timestamp. When two events share
// that timestamp with different levels the later one in input order wins;
// the source leaves that tie unspecified, so this is a documented choice,
// not a contract.
func Users(events []schema.EventRecord) []schema.UserRow {
	type lastSeen struct {
		row schema.UserRow
		ts  int64
	}
	last := make(map[int32]lastSeen)
	for _, e := range events {
		if e.UserID == nil {
			continue
		}
		prev, ok := last[*e.UserID]
		if ok && e.TS < prev.ts {
			continue
		}
		last[*e.UserID] = lastSeen{
			ts: e.TS,
			row: schema.UserRow{
				UserID:    *e.UserID,
				FirstName: e.FirstName,
				LastName:  e.LastName,
				Gender:    e.Gender,
				Level:     e.Level,
			},
		}
	}

	out := make([]schema.UserRow, 0, len(last))
	for _, v := range last {
		out = append(out, v.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Songplays builds the fact table: one row per song-play event, in start
// time order, with surrogate ids assigned 1..N in that order. Events that
// do not match any catalog entry keep nil song/artist ids.
func Songplays(plays []schema.EventRecord, catalog []schema.SongRecord) []schema.SongplayRow {
	idx := newSongIndex(catalog)

	ordered := make([]schema.EventRecord, len(plays))
	copy(ordered, plays)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].TS < ordered[j].TS })

	out := make([]schema.SongplayRow, 0, len(ordered))
	for i, e := range ordered {
		row := schema.SongplayRow{
			SongplayID: int64(i + 1),
			StartTime:  e.TS,
			UserID:     e.UserID,
			Level:      e.Level,
			SessionID:  e.SessionID,
			Location:   e.Location,
			UserAgent:  e.UserAgent,
		}
		t := timeOf(e.TS)
		row.Year = int32(t.Year())
		row.Month = int32(t.Month())

		if m, ok := idx.lookup(e.Song, e.Artist, e.Length); ok {
			songID, artistID := m.songID, m.artistID
			row.SongID = &songID
			row.ArtistID = &artistID
		}
		out = append(out, row)
	}
	return out
}

// songIndex resolves (title, artist name, duration) triples to catalog ids.
// Keys are NFC-normalized before hashing so that byte-level Unicode
// variants of the same title still match; the full composite key is kept
// per entry to rule out hash collisions.
type songIndex struct {
	byHash map[uint64][]songMatch
}

type songMatch struct {
	key      string
	songID   string
	artistID string
}

func newSongIndex(catalog []schema.SongRecord) *songIndex {
	idx := &songIndex{byHash: make(map[uint64][]songMatch, len(catalog))}
	for _, c := range catalog {
		key := matchKey(c.Title, c.ArtistName, c.Duration)
		h := xxh3.HashString(key)
		bucket := idx.byHash[h]
		dup := false
		for _, m := range bucket {
			if m.key == key {
				dup = true
				break
			}
		}
		if dup {
			// Duplicate catalog entries for the same triple; first wins,
			// same as the dimension dedup.
			continue
		}
		idx.byHash[h] = append(bucket, songMatch{key: key, songID: c.SongID, artistID: c.ArtistID})
	}
	return idx
}

func (idx *songIndex) lookup(title, artist string, length *float64) (songMatch, bool) {
	if length == nil {
		return songMatch{}, false
	}
	key := matchKey(title, artist, *length)
	for _, m := range idx.byHash[xxh3.HashString(key)] {
		if m.key == key {
			return m, true
		}
	}
	return songMatch{}, false
}

func matchKey(title, artist string, duration float64) string {
	var b strings.Builder
	b.WriteString(norm.NFC.String(title))
	b.WriteByte('\x1f')
	b.WriteString(norm.NFC.String(artist))
	b.WriteByte('\x1f')
	b.WriteString(strconv.FormatFloat(duration, 'f', -1, 64))
	return b.String()
}

// CheckInvariantAttrs verifies the dedup assumption that non-key attributes
// are constant per key: for every key extracted by keyOf, all records must
// render identically through attrsOf. It returns an error naming the first
// violating key.
func CheckInvariantAttrs[T any](in []T, keyOf func(T) string, attrsOf func(T) string) error {
	first := make(map[string]string, len(in))
	for _, rec := range in {
		k := keyOf(rec)
		attrs := attrsOf(rec)
		if prev, ok := first[k]; ok {
			if prev != attrs {
				return fmt.Errorf("key %q has divergent attributes: %q vs %q", k, prev, attrs)
			}
			continue
		}
		first[k] = attrs
	}
	return nil
}
