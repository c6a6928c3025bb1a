package gateway

import (
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// DefaultDimensions is the vector size of the hash embedder.
const DefaultDimensions = 256

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var wordRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// englishStopWords carry no signal for document similarity.
var englishStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "was": true, "were": true, "with": true,
}

// HashEmbedder maps text to a fixed-size vector by hashing words and
// character trigrams into buckets. It is deterministic and needs no model.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates an embedder producing vectors of dims entries.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Dimensions returns the vector size.
func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

// Embed returns the unit-length vector for text.
// Blank text yields the zero vector.
func (e *HashEmbedder) Embed(text string) []float32 {
	vec := make([]float32, e.dims)
	text = strings.TrimSpace(text)
	if text == "" {
		return vec
	}

	for _, w := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		if englishStopWords[w] {
			continue
		}
		vec[bucket(w, e.dims)] += tokenWeight
	}

	var letters []rune
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters = append(letters, r)
		}
	}
	for i := 0; i+ngramSize <= len(letters); i++ {
		vec[bucket(string(letters[i:i+ngramSize]), e.dims)] += ngramWeight
	}

	normalize(vec)
	return vec
}

// bucket uses FNV-64 to map a string to an index.
func bucket(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

// normalize scales v to unit length in place.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
