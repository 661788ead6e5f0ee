// Package similarity scores how alike two sessions are across five
// independent dimensions — tool overlap, project match, time
// proximity, tag overlap, and token-count similarity — and combines
// them into a weighted total used to rank candidates against a
// source session.
package similarity

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Candidate is the subset of a session's shape the scorer needs. It
// deliberately doesn't depend on model.Session so this package stays
// usable against any summary a caller can produce cheaply (e.g. from
// QuickMetadata plus a tool histogram) without a full reconstruction.
type Candidate struct {
	ID      string
	Tools   map[string]struct{}
	Project string
	When    time.Time
	Tags    map[string]struct{}
	Tokens  int64
}

// Weights are the per-dimension weights used in the combined score,
// each 0-255 per spec; the zero value means "unweighted" and must not
// be passed to Rank without first calling DefaultWeights.
type Weights struct {
	Tool    uint8
	Project uint8
	Time    uint8
	Tag     uint8
	Token   uint8
}

// DefaultWeights weighs every dimension equally.
func DefaultWeights() Weights {
	return Weights{Tool: 1, Project: 1, Time: 1, Tag: 1, Token: 1}
}

// timeHalfLife is the exponential decay constant for time proximity:
// a one-week e-folding, chosen deliberately per spec and kept unless
// product decides otherwise.
const timeHalfLife = 7 * 24 * time.Hour

// Scored pairs a candidate with its computed scores against a source.
type Scored struct {
	Candidate    Candidate
	ToolScore    float64
	ProjectScore float64
	TimeScore    float64
	TagScore     float64
	TokenScore   float64
	Total        float64
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 100
	}
	return float64(inter) / float64(union) * 100
}

func toolOverlap(s, t Candidate) float64 {
	return jaccard(s.Tools, t.Tools)
}

// tagOverlap scores tag Jaccard overlap, except both sets empty is
// neutral (50) rather than a perfect match — an untagged pair says
// nothing about similarity, unlike an untagged-tools pair.
func tagOverlap(s, t Candidate) float64 {
	if len(s.Tags) == 0 && len(t.Tags) == 0 {
		return 50
	}
	return jaccard(s.Tags, t.Tags)
}

// projectMatch scores identical paths as 100, otherwise the fraction
// of shared leading path components.
func projectMatch(s, t Candidate) float64 {
	if s.Project == t.Project {
		return 100
	}
	sp := strings.Split(strings.Trim(s.Project, "/"), "/")
	tp := strings.Split(strings.Trim(t.Project, "/"), "/")

	common := 0
	for i := 0; i < len(sp) && i < len(tp); i++ {
		if sp[i] != tp[i] {
			break
		}
		common++
	}
	maxLen := len(sp)
	if len(tp) > maxLen {
		maxLen = len(tp)
	}
	if maxLen == 0 {
		return 100
	}
	return float64(common) / float64(maxLen) * 100
}

func timeProximity(s, t Candidate) float64 {
	delta := s.When.Sub(t.When)
	if delta < 0 {
		delta = -delta
	}
	return math.Exp(-float64(delta)/float64(timeHalfLife)) * 100
}

func tokenSimilarity(s, t Candidate) float64 {
	if s.Tokens == 0 && t.Tokens == 0 {
		return 100
	}
	if s.Tokens == 0 || t.Tokens == 0 {
		return 0
	}
	diff := s.Tokens - t.Tokens
	if diff < 0 {
		diff = -diff
	}
	maxTokens := s.Tokens
	if t.Tokens > maxTokens {
		maxTokens = t.Tokens
	}
	return (1 - float64(diff)/float64(maxTokens)) * 100
}

// Score computes every dimension's score and the weighted total for
// one candidate against the source.
func Score(source, candidate Candidate, w Weights) Scored {
	s := Scored{
		Candidate:    candidate,
		ToolScore:    toolOverlap(source, candidate),
		ProjectScore: projectMatch(source, candidate),
		TimeScore:    timeProximity(source, candidate),
		TagScore:     tagOverlap(source, candidate),
		TokenScore:   tokenSimilarity(source, candidate),
	}

	weightSum := float64(w.Tool) + float64(w.Project) + float64(w.Time) + float64(w.Tag) + float64(w.Token)
	if weightSum == 0 {
		return s
	}
	weighted := s.ToolScore*float64(w.Tool) +
		s.ProjectScore*float64(w.Project) +
		s.TimeScore*float64(w.Time) +
		s.TagScore*float64(w.Tag) +
		s.TokenScore*float64(w.Token)
	s.Total = weighted / weightSum
	return s
}

// Rank scores source against every member of pool, drops candidates
// whose total falls below threshold, and sorts survivors descending
// by total.
func Rank(source Candidate, pool []Candidate, w Weights, threshold float64) []Scored {
	survivors := make([]Scored, 0, len(pool))
	for _, c := range pool {
		scored := Score(source, c, w)
		if scored.Total >= threshold {
			survivors = append(survivors, scored)
		}
	}
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].Total > survivors[j].Total
	})
	return survivors
}
