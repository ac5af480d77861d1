package schema

import (
	"fmt"
	"strconv"
)

// NullPartition is the directory token used when a partition column value
// is null, mirroring the convention of Hive-style lake layouts.
const NullPartition = "__HIVE_DEFAULT_PARTITION__"

// The five derived tables. Parquet physical types follow the declared
// logical model: identifiers as UTF8 strings, instants as millisecond
// timestamps, nullable attributes as OPTIONAL pointer columns.
//
// Partition column values are carried in the rows as well as in the output
// path; that keeps a written table readable file-by-file without path
// reconstruction, at the cost of a little redundancy.

// SongRow is one songs-dimension row, keyed by song_id.
type SongRow struct {
	SongID   string  `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Title    string  `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year     *int32  `parquet:"name=year, type=INT32, repetitiontype=OPTIONAL"`
	Duration float64 `parquet:"name=duration, type=DOUBLE"`
}

// ArtistRow is one artists-dimension row, keyed by artist_id.
type ArtistRow struct {
	ArtistID  string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name      string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Location  string   `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude  *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// TimeRow is one time-dimension row, keyed by the instant itself.
type TimeRow struct {
	StartTime int64 `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Hour      int32 `parquet:"name=hour, type=INT32"`
	Day       int32 `parquet:"name=day, type=INT32"`
	Week      int32 `parquet:"name=week, type=INT32"`
	Month     int32 `parquet:"name=month, type=INT32"`
	Year      int32 `parquet:"name=year, type=INT32"`
	Weekday   int32 `parquet:"name=weekday, type=INT32"`
}

// UserRow is one users-dimension row, keyed by user_id. Level reflects the
// chronologically last event observed for the user.
type UserRow struct {
	UserID    int32  `parquet:"name=user_id, type=INT32"`
	FirstName string `parquet:"name=first_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastName  string `parquet:"name=last_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Gender    string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// SongplayRow is one fact row: a single song-play event. Song and artist
// ids are nil when the event did not resolve against the catalog.
type SongplayRow struct {
	SongplayID int64   `parquet:"name=songplay_id, type=INT64"`
	StartTime  int64   `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	UserID     *int32  `parquet:"name=user_id, type=INT32, repetitiontype=OPTIONAL"`
	Level      string  `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
	SongID     *string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ArtistID   *string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	SessionID  int64   `parquet:"name=session_id, type=INT64"`
	Location   string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserAgent  string  `parquet:"name=user_agent, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year       int32   `parquet:"name=year, type=INT32"`
	Month      int32   `parquet:"name=month, type=INT32"`
}

// Table names as they appear under the output root.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableTime      = "time"
	TableUsers     = "users"
	TableSongplays = "songplays"
)

// PartitionColumns returns the partition-column specification per table.
// Tables absent from the map are unpartitioned.
func PartitionColumns(table string) []string {
	switch table {
	case TableSongs:
		return []string{"year", "artist_id"}
	case TableTime, TableSongplays:
		return []string{"year", "month"}
	default:
		return nil
	}
}

// Partition returns the hive-style partition path for a row, or "" for
// unpartitioned tables.
func (r SongRow) Partition() string {
	year := NullPartition
	if r.Year != nil {
		year = strconv.Itoa(int(*r.Year))
	}
	return fmt.Sprintf("year=%s/artist_id=%s", year, r.ArtistID)
}

func (r ArtistRow) Partition() string { return "" }

func (r TimeRow) Partition() string {
	return fmt.Sprintf("year=%d/month=%d", r.Year, r.Month)
}

func (r UserRow) Partition() string { return "" }

func (r SongplayRow) Partition() string {
	return fmt.Sprintf("year=%d/month=%d", r.Year, r.Month)
}
