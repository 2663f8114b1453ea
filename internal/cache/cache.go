package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/ppiankov/fnol/internal/model"
)

// Entry is the threshold-dependent outcome of processing one text
type Entry struct {
	Fields   *model.ExtractedFields
	Missing  []string
	Decision model.Decision
}

// Clone returns a deep copy of the entry. Caches store and return copies so
// no two requests share a record.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := &Entry{
		Fields:   e.Fields.Clone(),
		Decision: e.Decision,
	}
	if e.Missing != nil {
		out.Missing = append([]string{}, e.Missing...)
	}
	if e.Decision.Trace != nil {
		out.Decision.Trace = append([]model.RuleCheck{}, e.Decision.Trace...)
	}
	return out
}

// Cache stores processing outcomes keyed by document text
type Cache interface {
	Get(key string) (*Entry, bool)
	Set(key string, entry *Entry)
	Stats() Stats
}

// Stats reports cache effectiveness
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Items  int    `json:"items"`
}

// Key derives a cache key from the decoded text and the routing threshold.
// The same text routed under a different threshold gets a different key.
func Key(text string, threshold float64) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(threshold, 'g', -1, 64)))
	return "fnol:v1:" + hex.EncodeToString(h.Sum(nil))
}
