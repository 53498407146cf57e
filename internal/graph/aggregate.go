package graph

import (
	"log/slog"
	"sort"

	"github.com/nao1215/wplinks/internal/model"
)

// Aggregator computes incoming links and report rows from the article set
// and the resolved outgoing-link map.
type Aggregator struct {
	// logger receives warnings about unknown link targets.
	logger *slog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithAggregatorLogger sets the logger for aggregation warnings.
func WithAggregatorLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an Aggregator.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate derives the incoming-link map from outgoing and builds the
// sorted report rows.
//
// Every known article gets an incoming entry, so zero-inbound articles
// appear in the result with an empty sequence. A target that is not a
// known article is warned about and skipped; the keep-rule upstream
// should already have filtered it, but aggregation must not fail on it
// (non-post IDs legitimately appear in outgoing lists when the
// ignore-non-posts policy is disabled).
func (a *Aggregator) Aggregate(articles []model.Article, outgoing model.LinkMap) (model.IncomingMap, []model.Row) {
	incoming := make(model.IncomingMap, len(articles))
	for _, art := range articles {
		incoming[art.ID] = []int{}
	}

	// Walk sources in directory order so incoming sequences are
	// deterministic run to run.
	for _, src := range articles {
		for _, target := range outgoing[src.ID] {
			if _, known := incoming[target]; !known {
				a.logger.Warn("link target is not a known article",
					"source", src.ID,
					"target", target,
				)
				continue
			}
			incoming[target] = append(incoming[target], src.ID)
		}
	}

	rows := make([]model.Row, 0, len(articles))
	for _, art := range articles {
		out := outgoing[art.ID]
		if out == nil {
			out = []int{}
		}
		in := incoming[art.ID]
		rows = append(rows, model.Row{
			ID:            art.ID,
			Slug:          art.Slug,
			OutgoingCount: len(out),
			Outgoing:      out,
			IncomingCount: len(in),
			Incoming:      in,
		})
	}

	// Stable keeps directory order for equal incoming counts.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].IncomingCount > rows[j].IncomingCount
	})

	return incoming, rows
}
