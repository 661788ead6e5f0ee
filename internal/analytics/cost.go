package analytics

import "strings"

// ModelRates is a per-model price table, in US dollars per million
// tokens, for each of the four usage buckets the wire format tracks.
type ModelRates struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64
}

// CostTable maps a model-name substring to its rates. Lookup matches
// case-insensitively by substring rather than exact model string,
// since provider model identifiers change formatting over time
// ("claude-opus-4-20250514" vs "claude-3-opus-20240229") while the
// pricing tier name itself ("opus") stays stable.
type CostTable map[string]ModelRates

// Lookup finds the rates for a raw model string by case-insensitive
// substring match against the table's keys. The second return value
// is false when no key matches, meaning the caller should accumulate
// tokens without contributing to estimated cost.
func (t CostTable) Lookup(model string) (ModelRates, bool) {
	lower := strings.ToLower(model)
	for key, rates := range t {
		if strings.Contains(lower, key) {
			return rates, true
		}
	}
	return ModelRates{}, false
}

// DefaultTable returns illustrative Claude pricing tiers. Rates are
// data, not a guaranteed-current price list — callers needing
// accurate billing should supply their own CostTable.
func DefaultTable() CostTable {
	return CostTable{
		"opus":   {Input: 15, Output: 75, CacheWrite: 18.75, CacheRead: 1.5},
		"sonnet": {Input: 3, Output: 15, CacheWrite: 3.75, CacheRead: 0.3},
		"haiku":  {Input: 0.8, Output: 4, CacheWrite: 1, CacheRead: 0.08},
	}
}

const tokensPerMillion = 1_000_000.0

// estimateCost prices a per-model token usage map against a table,
// summing across every model bucket. Models absent from the table
// contribute zero cost.
func estimateCost(table CostTable, perModel map[string]tokenBuckets) float64 {
	var total float64
	for model, buckets := range perModel {
		rates, ok := table.Lookup(model)
		if !ok {
			continue
		}
		total += float64(buckets.input) * rates.Input / tokensPerMillion
		total += float64(buckets.output) * rates.Output / tokensPerMillion
		total += float64(buckets.cacheWrite) * rates.CacheWrite / tokensPerMillion
		total += float64(buckets.cacheRead) * rates.CacheRead / tokensPerMillion
	}
	return total
}

type tokenBuckets struct {
	input      int64
	output     int64
	cacheWrite int64
	cacheRead  int64
}
