package dataset

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-ttstok/internal/tokenizer"
)

// Encoded is the token sequence of one sample.
type Encoded struct {
	ID  string `json:"id"`
	IDs []int  `json:"ids"`
}

// Stats summarizes an Encode run.
type Stats struct {
	Samples  int      `json:"samples"`
	Tokens   int      `json:"tokens"`
	MaxLen   int      `json:"max_len"`
	NotFound []string `json:"not_found,omitempty"`
}

// Encode tokenizes samples with up to workers goroutines. Samples are split
// into contiguous shards, each encoded by its own clone of base; the clones'
// not-found sets are merged into base in shard order, so the result and the
// merged set are the same for any worker count. The first error cancels the
// remaining shards.
func Encode(ctx context.Context, base *tokenizer.Tokenizer, samples []Sample, workers int) ([]Encoded, Stats, error) {
	if workers < 1 {
		workers = 1
	}

	workers = min(workers, max(len(samples), 1))

	out := make([]Encoded, len(samples))
	clones := make([]*tokenizer.Tokenizer, workers)
	shard := (len(samples) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)

	for w := range workers {
		lo := min(w*shard, len(samples))
		hi := min(lo+shard, len(samples))
		tok := base.Clone()
		clones[w] = tok

		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}

				ids, err := tok.TextToIDs(samples[i].Text, samples[i].Language)
				if err != nil {
					return fmt.Errorf("encode sample %q: %w", samples[i].ID, err)
				}

				out[i] = Encoded{ID: samples[i].ID, IDs: ids}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	for _, c := range clones {
		base.MergeNotFound(c.NotFoundCharacters()...)
	}

	stats := Stats{Samples: len(out), NotFound: base.NotFoundCharacters()}
	for _, e := range out {
		stats.Tokens += len(e.IDs)
		stats.MaxLen = max(stats.MaxLen, len(e.IDs))
	}

	return out, stats, nil
}
