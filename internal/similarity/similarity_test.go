package similarity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jkindrix/convo-core/internal/similarity"
)

func strSet(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// TestScoreDefaultWeightsScenario mirrors the documented scenario: two
// sessions sharing a project, one day apart, with partial tool
// overlap, no tags, and equal token counts.
func TestScoreDefaultWeightsScenario(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	source := similarity.Candidate{
		ID:      "S",
		Tools:   strSet("Read", "Bash"),
		Project: "/home/u/proj",
		When:    base,
		Tags:    strSet(),
		Tokens:  1000,
	}
	target := similarity.Candidate{
		ID:      "T",
		Tools:   strSet("Read", "Grep"),
		Project: "/home/u/proj",
		When:    base.Add(24 * time.Hour),
		Tags:    strSet(),
		Tokens:  1000,
	}

	scored := similarity.Score(source, target, similarity.DefaultWeights())

	assert.InDelta(t, 33.33, scored.ToolScore, 0.1)
	assert.InDelta(t, 100, scored.ProjectScore, 0.01)
	assert.InDelta(t, 86.69, scored.TimeScore, 0.1)
	assert.InDelta(t, 50, scored.TagScore, 0.01)
	assert.InDelta(t, 100, scored.TokenScore, 0.01)
	assert.InDelta(t, 74.0, scored.Total, 0.1)
}

func TestToolOverlapEmptyBothMeansPerfectMatch(t *testing.T) {
	a := similarity.Candidate{Tools: strSet()}
	b := similarity.Candidate{Tools: strSet()}
	scored := similarity.Score(a, b, similarity.DefaultWeights())
	assert.Equal(t, 100.0, scored.ToolScore)
}

func TestToolOverlapOneEmptyMeansZero(t *testing.T) {
	a := similarity.Candidate{Tools: strSet("Read")}
	b := similarity.Candidate{Tools: strSet()}
	scored := similarity.Score(a, b, similarity.DefaultWeights())
	assert.Equal(t, 0.0, scored.ToolScore)
}

func TestTokenSimilarityBothZero(t *testing.T) {
	a := similarity.Candidate{Tokens: 0}
	b := similarity.Candidate{Tokens: 0}
	scored := similarity.Score(a, b, similarity.DefaultWeights())
	assert.Equal(t, 100.0, scored.TokenScore)
}

func TestRankDropsBelowThresholdAndSortsDescending(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	source := similarity.Candidate{Tools: strSet("Read"), Project: "/a", When: base, Tags: strSet(), Tokens: 100}
	pool := []similarity.Candidate{
		{ID: "close", Tools: strSet("Read"), Project: "/a", When: base, Tags: strSet(), Tokens: 100},
		{ID: "far", Tools: strSet("Bash"), Project: "/z", When: base.Add(365 * 24 * time.Hour), Tags: strSet(), Tokens: 9999999},
	}

	ranked := similarity.Rank(source, pool, similarity.DefaultWeights(), 50)
	if assert.Len(t, ranked, 1) {
		assert.Equal(t, "close", ranked[0].Candidate.ID)
	}
}

func TestProjectMatchCommonPrefix(t *testing.T) {
	a := similarity.Candidate{Project: "/home/user/proj-a"}
	b := similarity.Candidate{Project: "/home/user/proj-b"}
	scored := similarity.Score(a, b, similarity.DefaultWeights())
	assert.InDelta(t, 66.66, scored.ProjectScore, 0.1)
}
