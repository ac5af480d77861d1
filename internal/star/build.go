package star

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"sparkifyetl/internal/schema"
)

func timeOf(ts int64) time.Time { return time.UnixMilli(ts).UTC() }

// Build derives the full star schema. The four dimensions have no ordering
// dependency among them and are computed concurrently; the fact table is
// sequenced after songs/artists so it resolves against the same catalog
// snapshot the dimensions were cut from.
//
// The builders are total over well-typed inputs, so the only error path is
// context cancellation.
func Build(ctx context.Context, catalog []schema.SongRecord, events []schema.EventRecord) (Tables, error) {
	plays := schema.Plays(events)

	var t Tables
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { t.Songs = Songs(catalog); return nil })
	g.Go(func() error { t.Artists = Artists(catalog); return nil })
	g.Go(func() error { t.Time = Time(plays); return nil })
	g.Go(func() error { t.Users = Users(events); return nil })
	if err := g.Wait(); err != nil {
		return Tables{}, err
	}
	if err := ctx.Err(); err != nil {
		return Tables{}, err
	}

	t.Songplays = Songplays(plays, catalog)
	return t, nil
}
