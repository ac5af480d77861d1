// Package schema declares the typed record shapes for both input datasets
// and the five derived tables.
//
// The input schemas are explicit rather than inferred: every field a loader
// consumes is named here with its declared type, and coercion failures
// surface as errors instead of silently producing wrong types downstream.
package schema

import (
	"fmt"

	"sparkifyetl/pkg/records"
)

// SongRecord is one row of the song catalog: one song and its artist.
type SongRecord struct {
	SongID         string
	Title          string
	Year           *int32 // nil when missing, non-numeric, or zero
	Duration       float64
	ArtistID       string
	ArtistName     string
	ArtistLocation string
	ArtistLat      *float64
	ArtistLon      *float64
}

// SongFromRecord coerces a raw catalog record into a SongRecord.
//
// song_id and artist_id are required; a record without them cannot key
// either dimension and is rejected. Everything else degrades to its zero
// value or nil so that a sparse catalog row still contributes.
func SongFromRecord(r records.Record) (SongRecord, error) {
	songID, ok := r.String("song_id")
	if !ok || songID == "" {
		return SongRecord{}, fmt.Errorf("catalog record missing song_id")
	}
	artistID, ok := r.String("artist_id")
	if !ok || artistID == "" {
		return SongRecord{}, fmt.Errorf("catalog record %s missing artist_id", songID)
	}

	s := SongRecord{
		SongID:   songID,
		ArtistID: artistID,
	}
	s.Title, _ = r.String("title")
	s.ArtistName, _ = r.String("artist_name")
	s.ArtistLocation, _ = r.String("artist_location")
	s.Duration, _ = r.Float("duration")

	// The source encodes "unknown year" as 0; map it to null like any
	// other non-numeric value.
	if y, ok := r.Int64("year"); ok && y != 0 {
		yy := int32(y)
		s.Year = &yy
	}
	if lat, ok := r.Float("artist_latitude"); ok {
		s.ArtistLat = &lat
	}
	if lon, ok := r.Float("artist_longitude"); ok {
		s.ArtistLon = &lon
	}
	return s, nil
}
