package linear

import (
	"context"

	"github.com/hupe1980/hashmodel/feature"
	"github.com/hupe1980/hashmodel/internal/resource"
	"github.com/hupe1980/hashmodel/weights"
	"golang.org/x/sync/errgroup"
)

// Score adds the contribution of every feature to scores.
//
// Each weight list is walked until its sentinel. Entries whose class id
// falls outside the buffer are ignored.
func Score(scores []float32, features []feature.Feature, store *weights.Store) {
	n := int32(len(scores))
	for _, f := range features {
		v := store.Lookup(f.Key)
		if v == nil {
			continue
		}
		for _, e := range v.Raw() {
			if e.Class < 0 {
				break
			}
			if e.Class < n {
				scores[e.Class] += e.Weight * f.Value
			}
		}
	}
}

// Item is one example of a batch: its features and its own score buffer.
type Item struct {
	Features []feature.Feature
	Scores   []float32
}

// ScoreBatch zeroes and scores every item concurrently. The store is only
// read, so no locking is needed as long as nothing mutates it meanwhile.
// Each item holds one of rc's worker slots while it is scored, so the
// slots bound concurrency across all batches sharing rc (one worker when
// rc is nil).
func ScoreBatch(ctx context.Context, items []Item, store *weights.Store, rc *resource.Controller) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.Workers())

	for i := range items {
		item := &items[i]
		g.Go(func() error {
			if err := rc.AcquireBackground(ctx); err != nil {
				return err
			}
			defer rc.ReleaseBackground()

			if err := ctx.Err(); err != nil {
				return err
			}
			clear(item.Scores)
			Score(item.Scores, item.Features, store)
			return nil
		})
	}

	return g.Wait()
}
