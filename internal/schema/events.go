package schema

import (
	"fmt"
	"time"

	"sparkifyetl/pkg/records"
)

// PageNextSong is the action-type discriminator marking a song-play event.
// Every other page value (Home, Login, Logout, ...) is an app interaction
// that does not produce a songplay fact.
const PageNextSong = "NextSong"

// EventRecord is one row of the user activity log.
type EventRecord struct {
	TS        int64     // raw epoch milliseconds, the grouping key for time
	Start     time.Time // TS as a UTC instant
	Page      string
	UserID    *int32 // nil when the log row carries no user id
	FirstName string
	LastName  string
	Gender    string
	Level     string
	SessionID int64
	Song      string
	Artist    string
	Length    *float64
	Location  string
	UserAgent string
}

// IsPlay reports whether the event is a song play.
func (e EventRecord) IsPlay() bool { return e.Page == PageNextSong }

// EventFromRecord coerces a raw log record into an EventRecord.
//
// A missing or unparseable ts is a contract violation: the timestamp seeds
// the time dimension and the songplay partition columns, so letting a bad
// one through would corrupt every derived table. The caller decides whether
// that aborts the run or drops the record (see load.Options.Strict).
func EventFromRecord(r records.Record) (EventRecord, error) {
	ts, ok := r.Int64("ts")
	if !ok || ts <= 0 {
		return EventRecord{}, fmt.Errorf("event record has no usable ts: %v", r["ts"])
	}

	e := EventRecord{
		TS:    ts,
		Start: time.UnixMilli(ts).UTC(),
	}
	e.Page, _ = r.String("page")
	e.FirstName, _ = r.String("firstName")
	e.LastName, _ = r.String("lastName")
	e.Gender, _ = r.String("gender")
	e.Level, _ = r.String("level")
	e.Song, _ = r.String("song")
	e.Artist, _ = r.String("artist")
	e.Location, _ = r.String("location")
	e.UserAgent, _ = r.String("userAgent")
	e.SessionID, _ = r.Int64("sessionId")

	// userId is serialized as a string in the logs and is empty for
	// anonymous sessions; both map to nil.
	if id, ok := r.Int64("userId"); ok {
		uid := int32(id)
		e.UserID = &uid
	}
	if l, ok := r.Float("length"); ok {
		e.Length = &l
	}
	return e, nil
}

// Plays filters events down to song plays, preserving order.
func Plays(events []EventRecord) []EventRecord {
	out := make([]EventRecord, 0, len(events))
	for _, e := range events {
		if e.IsPlay() {
			out = append(out, e)
		}
	}
	return out
}
