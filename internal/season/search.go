package season

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTitleScore is the Jaro-Winkler similarity a title must reach to match a query.
const minTitleScore = 0.85

// normalizeTitle lowercases s, strips accents, and collapses punctuation to spaces.
func normalizeTitle(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space && b.Len() > 0 {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// titleScore rates how well title answers query: 1 for a substring match,
// otherwise the best Jaro-Winkler similarity against the title or any of its words.
func titleScore(query, title string) float64 {
	q, t := normalizeTitle(query), normalizeTitle(title)
	if q == "" || t == "" {
		return 0
	}
	if strings.Contains(t, q) {
		return 1
	}
	best := float64(edlib.JaroWinklerSimilarity(q, t))
	for _, word := range strings.Fields(t) {
		if s := float64(edlib.JaroWinklerSimilarity(q, word)); s > best {
			best = s
		}
	}
	return best
}

type scoredGroup struct {
	group Group
	score float64
}

// matchGroups returns the groups whose series or season title matches query, best first.
func matchGroups(query string, groups []Group) []Group {
	if strings.TrimSpace(query) == "" {
		return groups
	}

	var scored []scoredGroup
	for _, g := range groups {
		score := max(titleScore(query, g.SeriesTitle), titleScore(query, g.SeasonTitle))
		if score >= minTitleScore {
			scored = append(scored, scoredGroup{group: g, score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	out := make([]Group, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.group)
	}
	return out
}
