// Package spell corrects tokens against a word-frequency dictionary.
package spell

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/endi/internal/logging"
	"go.uber.org/zap"
)

// Corrector rewrites tokens to their most likely spelling.
// The output always has the same length as the input.
type Corrector interface {
	Correct(tokens []string) []string
}

// Nop returns tokens unchanged
type Nop struct{}

// Correct implements Corrector
func (Nop) Correct(tokens []string) []string {
	return tokens
}

// DefaultMaxDistance is the edit distance used when none is configured
const DefaultMaxDistance = 2

// Dictionary picks, for an unknown word, the most frequent known word
// within the maximum edit distance. Results are memoised.
type Dictionary struct {
	freq        map[string]int
	byLength    map[int][]string
	maxDistance int
	memo        *gocache.Cache
	logger      *zap.Logger
}

// NewDictionary creates a corrector over word frequencies
func NewDictionary(freq map[string]int, maxDistance int, logger *zap.Logger) *Dictionary {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}

	d := &Dictionary{
		freq:        make(map[string]int, len(freq)),
		byLength:    make(map[int][]string),
		maxDistance: maxDistance,
		memo:        gocache.New(30*time.Minute, 10*time.Minute),
		logger:      logging.Component(logger, "spell"),
	}
	for w, n := range freq {
		w = strings.ToLower(w)
		d.freq[w] += n
	}
	for w := range d.freq {
		l := utf8.RuneCountInString(w)
		d.byLength[l] = append(d.byLength[l], w)
	}
	return d
}

// LoadDictionary reads a word list: one word per line, optionally followed
// by a frequency ("кот 120"). Blank lines and "#" comments are skipped.
func LoadDictionary(path string, maxDistance int, logger *zap.Logger) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	freq := make(map[string]int)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		count := 1
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("dictionary line %d: invalid count %q", line, fields[1])
			}
			count = n
		}
		freq[fields[0]] += count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	return NewDictionary(freq, maxDistance, logger), nil
}

// Len returns the number of known words
func (d *Dictionary) Len() int {
	return len(d.freq)
}

// Correct implements Corrector
func (d *Dictionary) Correct(tokens []string) []string {
	corrected := make([]string, len(tokens))
	for i, word := range tokens {
		corrected[i] = d.correction(word)
		if corrected[i] != word {
			d.logger.Info("corrected", zap.String("from", word), zap.String("to", corrected[i]))
		}
	}
	return corrected
}

func (d *Dictionary) correction(word string) string {
	if word == "" {
		return word
	}
	if _, ok := d.freq[word]; ok {
		return word
	}
	if v, ok := d.memo.Get(word); ok {
		return v.(string)
	}

	best := word
	bestDist := d.maxDistance + 1
	bestFreq := -1

	l := utf8.RuneCountInString(word)
	for candLen := l - d.maxDistance; candLen <= l+d.maxDistance; candLen++ {
		for _, cand := range d.byLength[candLen] {
			dist := distance(word, cand)
			if dist > d.maxDistance {
				continue
			}
			// Closer wins, then more frequent, then alphabetical
			if dist < bestDist ||
				(dist == bestDist && d.freq[cand] > bestFreq) ||
				(dist == bestDist && d.freq[cand] == bestFreq && cand < best) {
				best, bestDist, bestFreq = cand, dist, d.freq[cand]
			}
		}
	}

	d.memo.SetDefault(word, best)
	return best
}

// distance is the Levenshtein distance between a and b, counted in runes
func distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
