// Package analytics aggregates a reconstructed conversation into a
// per-session record of token usage, tool histogram, message-kind
// counts, and estimated cost, and combines per-session records into
// project-level totals without losing order-independence.
package analytics

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jkindrix/convo-core/internal/model"
	"github.com/jkindrix/convo-core/internal/reconstruct"
)

// SessionAnalytics is the per-session analytics record.
type SessionAnalytics struct {
	Usage            model.Usage
	PerModel         map[string]model.Usage
	ToolHistogram    map[reconstruct.ToolCategory]int
	KindCounts       map[model.EntryKind]int
	ErrorCount       int
	EstimatedCostUSD float64
}

// Analyze walks every node of a reconstructed conversation once,
// accumulating token usage (overall and per model), a tool-category
// histogram, message-kind counts, and an error count, then prices the
// per-model token buckets against table.
func Analyze(conv *reconstruct.Conversation, table CostTable) SessionAnalytics {
	a := SessionAnalytics{
		PerModel:      make(map[string]model.Usage),
		ToolHistogram: make(map[reconstruct.ToolCategory]int),
		KindCounts:    make(map[model.EntryKind]int),
	}

	perModelBuckets := make(map[string]tokenBuckets)

	var walk func(nodes []*reconstruct.Node)
	walk = func(nodes []*reconstruct.Node) {
		for _, n := range nodes {
			a.KindCounts[n.Entry.Kind()]++

			switch e := n.Entry.(type) {
			case *model.AssistantEntry:
				a.Usage = a.Usage.Merge(e.Usage)
				a.PerModel[e.Model] = a.PerModel[e.Model].Merge(e.Usage)

				b := perModelBuckets[e.Model]
				b.input += e.Usage.InputTokens
				b.output += e.Usage.OutputTokens
				b.cacheWrite += e.Usage.CacheCreationInputTokens
				b.cacheRead += e.Usage.CacheReadInputTokens
				perModelBuckets[e.Model] = b

				if e.IsAPIErrorMessage {
					a.ErrorCount++
				}
				for _, block := range e.Content {
					if tu, ok := block.(*model.ToolUseBlock); ok {
						a.ToolHistogram[reconstruct.NormalizeToolCategory(tu.Name)]++
					}
				}
			case *model.UserEntry:
				for _, block := range e.Content {
					if tr, ok := block.(*model.ToolResultBlock); ok && tr.ErrorState() == "error" {
						a.ErrorCount++
					}
				}
			}

			walk(n.Children)
		}
	}
	walk(conv.Roots)

	a.EstimatedCostUSD = estimateCost(table, perModelBuckets)
	return a
}

// ProjectAnalytics is the sum of every session's analytics in a
// project.
type ProjectAnalytics struct {
	SessionCount     int
	Usage            model.Usage
	PerModel         map[string]model.Usage
	ToolHistogram    map[reconstruct.ToolCategory]int
	KindCounts       map[model.EntryKind]int
	ErrorCount       int
	EstimatedCostUSD float64
}

// AggregateProject sums token buckets across sessions and recomputes
// cost from the summed per-model buckets, rather than summing each
// session's own EstimatedCostUSD — the result is identical regardless
// of session order or how sessions are partitioned into batches.
func AggregateProject(sessions []SessionAnalytics, table CostTable) ProjectAnalytics {
	p := ProjectAnalytics{
		SessionCount:  len(sessions),
		PerModel:      make(map[string]model.Usage),
		ToolHistogram: make(map[reconstruct.ToolCategory]int),
		KindCounts:    make(map[model.EntryKind]int),
	}

	perModelBuckets := make(map[string]tokenBuckets)

	for _, s := range sessions {
		p.Usage = p.Usage.Merge(s.Usage)
		p.ErrorCount += s.ErrorCount
		for model, usage := range s.PerModel {
			p.PerModel[model] = p.PerModel[model].Merge(usage)

			b := perModelBuckets[model]
			b.input += usage.InputTokens
			b.output += usage.OutputTokens
			b.cacheWrite += usage.CacheCreationInputTokens
			b.cacheRead += usage.CacheReadInputTokens
			perModelBuckets[model] = b
		}
		for cat, n := range s.ToolHistogram {
			p.ToolHistogram[cat] += n
		}
		for kind, n := range s.KindCounts {
			p.KindCounts[kind] += n
		}
	}

	p.EstimatedCostUSD = estimateCost(table, perModelBuckets)
	return p
}

// AnalyticsBatchResult is the return value of AnalyzeAll: per-session
// results in input order, plus the project-level aggregate.
type AnalyticsBatchResult struct {
	Sessions []SessionAnalytics
	Project  ProjectAnalytics
}

// AnalyzeAll maps Analyze over every conversation, optionally
// data-parallelizing the per-session work with a worker pool bounded
// by GOMAXPROCS, then always reduces sequentially in input order so
// the result is deterministic regardless of scheduling.
func AnalyzeAll(ctx context.Context, convs []*reconstruct.Conversation, table CostTable, parallel bool) (AnalyticsBatchResult, error) {
	results := make([]SessionAnalytics, len(convs))

	if !parallel || len(convs) < 2 {
		for i, c := range convs {
			results[i] = Analyze(c, table)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))

		for i, c := range convs {
			i, c := i, c
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = Analyze(c, table)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return AnalyticsBatchResult{}, err
		}
	}

	return AnalyticsBatchResult{
		Sessions: results,
		Project:  AggregateProject(results, table),
	}, nil
}
