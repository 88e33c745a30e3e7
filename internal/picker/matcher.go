package picker

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// chunkSize is how many items are scored between deadline checks.
const chunkSize = 512

// Match is an item that satisfied the query.
type Match struct {
	// Index is the item's position in the input list.
	Index int
	Text  string
	Score int
	// Positions are the rune offsets in Text that matched, for highlighting.
	Positions []int
}

// Matcher scores items against a query incrementally. Each Tick does a
// bounded amount of work; the ranked result is published once a pass over
// the candidates completes.
//
// Matching is fuzzy unless exact is set, in which case every query term
// must occur as a substring. Upper case in the query makes matching case
// sensitive. Diacritics are ignored unless the query itself contains
// non-ASCII letters.
type Matcher struct {
	items []string
	exact bool

	fold      transform.Transformer
	folded    []string
	hasFolded []bool

	started       bool
	query         string
	terms         []string
	caseSensitive bool
	normalize     bool

	pending  []int
	found    []Match
	snapshot []Match
	done     bool
}

// NewMatcher creates a matcher over items with an empty query.
func NewMatcher(items []string, exact bool) *Matcher {
	m := &Matcher{
		items:     items,
		exact:     exact,
		fold:      transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		folded:    make([]string, len(items)),
		hasFolded: make([]bool, len(items)),
	}
	m.SetQuery("")
	return m
}

// SetQuery starts a new pass. A query that extends the previous one only
// rescans the previous matches.
func (m *Matcher) SetQuery(q string) {
	if m.started && q == m.query {
		return
	}

	prev, prevTerms, prevDone, prevNormalize := m.query, m.terms, m.done, m.normalize
	m.started = true
	m.query = q
	m.terms = strings.Fields(q)
	m.caseSensitive = strings.IndexFunc(q, unicode.IsUpper) >= 0
	m.normalize = !hasNonASCIILetter(q)
	m.found = nil

	if len(m.terms) == 0 {
		m.snapshot = make([]Match, len(m.items))
		for i, item := range m.items {
			m.snapshot[i] = Match{Index: i, Text: item}
		}
		m.pending = nil
		m.done = true
		return
	}

	if prevDone && len(prevTerms) > 0 && strings.HasPrefix(q, prev) && m.normalize == prevNormalize {
		pool := make([]int, len(m.snapshot))
		for i, match := range m.snapshot {
			pool[i] = match.Index
		}
		slices.Sort(pool)
		m.pending = pool
	} else {
		pool := make([]int, len(m.items))
		for i := range pool {
			pool[i] = i
		}
		m.pending = pool
	}
	m.done = false
}

// Query returns the current query.
func (m *Matcher) Query() string {
	return m.query
}

// Tick scores pending items until budget is spent. It reports whether a
// new snapshot was published.
func (m *Matcher) Tick(budget time.Duration) bool {
	if m.done {
		return false
	}

	deadline := time.Now().Add(budget)
	for len(m.pending) > 0 {
		n := min(chunkSize, len(m.pending))
		m.scan(m.pending[:n])
		m.pending = m.pending[n:]
		if time.Now().After(deadline) {
			break
		}
	}
	if len(m.pending) > 0 {
		return false
	}

	slices.SortStableFunc(m.found, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	m.snapshot = m.found
	m.found = nil
	m.done = true
	return true
}

// Finish runs the current pass to completion.
func (m *Matcher) Finish() {
	for !m.done {
		m.Tick(time.Hour)
	}
}

// Done reports whether the snapshot reflects the current query.
func (m *Matcher) Done() bool {
	return m.done
}

// Snapshot returns the latest published matches, best first.
func (m *Matcher) Snapshot() []Match {
	return m.snapshot
}

// Matched returns the number of matches in the snapshot.
func (m *Matcher) Matched() int {
	return len(m.snapshot)
}

// Total returns the number of items.
func (m *Matcher) Total() int {
	return len(m.items)
}

// source adapts a subset of items to fuzzy.Source.
type source struct {
	m   *Matcher
	idx []int
}

func (s source) String(i int) string { return s.m.haystack(s.idx[i]) }
func (s source) Len() int            { return len(s.idx) }

// scan scores indices, which are in ascending order, and appends matches
// in the same order.
func (m *Matcher) scan(indices []int) {
	scores := make(map[int]int, len(indices))
	positions := make(map[int][]int, len(indices))
	alive := indices

	for _, term := range m.terms {
		var next []int
		if m.exact {
			for _, i := range alive {
				pos, ok := m.substring(m.haystack(i), term)
				if !ok {
					continue
				}
				scores[i] -= pos[0]
				positions[i] = append(positions[i], pos...)
				next = append(next, i)
			}
		} else {
			for _, fm := range fuzzy.FindFromNoSort(term, source{m: m, idx: alive}) {
				i := alive[fm.Index]
				hay := m.haystack(i)
				if m.caseSensitive && !subsequence(hay, term) {
					continue
				}
				scores[i] += fm.Score
				positions[i] = append(positions[i], runeOffsets(hay, fm.MatchedIndexes)...)
				next = append(next, i)
			}
		}
		alive = next
		if len(alive) == 0 {
			return
		}
	}

	for _, i := range alive {
		pos := positions[i]
		if m.normalize && utf8.RuneCountInString(m.haystack(i)) != utf8.RuneCountInString(m.items[i]) {
			pos = nil
		}
		slices.Sort(pos)
		m.found = append(m.found, Match{
			Index:     i,
			Text:      m.items[i],
			Score:     scores[i],
			Positions: slices.Compact(pos),
		})
	}
}

// haystack is the string matched for item i.
func (m *Matcher) haystack(i int) string {
	if !m.normalize {
		return m.items[i]
	}
	if !m.hasFolded[i] {
		folded, _, err := transform.String(m.fold, m.items[i])
		if err != nil {
			folded = m.items[i]
		}
		m.folded[i] = folded
		m.hasFolded[i] = true
	}
	return m.folded[i]
}

// substring finds term in hay and returns the matched rune offsets.
func (m *Matcher) substring(hay, term string) ([]int, bool) {
	if !m.caseSensitive {
		hay = strings.ToLower(hay)
		term = strings.ToLower(term)
	}
	at := strings.Index(hay, term)
	if at < 0 {
		return nil, false
	}
	start := utf8.RuneCountInString(hay[:at])
	n := utf8.RuneCountInString(term)
	pos := make([]int, n)
	for k := range pos {
		pos[k] = start + k
	}
	return pos, true
}

// subsequence reports whether the runes of term occur in hay in order,
// comparing case exactly.
func subsequence(hay, term string) bool {
	want := []rune(term)
	k := 0
	for _, r := range hay {
		if k < len(want) && r == want[k] {
			k++
		}
	}
	return k == len(want)
}

func runeOffsets(s string, byteIdx []int) []int {
	out := make([]int, 0, len(byteIdx))
	for _, b := range byteIdx {
		if b <= len(s) {
			out = append(out, utf8.RuneCountInString(s[:b]))
		}
	}
	return out
}

func hasNonASCIILetter(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
