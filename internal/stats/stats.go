// Package stats accumulates per-difficulty accuracy across a batch.
package stats

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Bucket counts correct sub-questions for one difficulty label.
type Bucket struct {
	Difficulty string `json:"difficulty"`
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
}

// Accuracy returns the percentage of correct sub-questions, 0 when empty.
func (b Bucket) Accuracy() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Correct) / float64(b.Total) * 100
}

// String renders "Difficulty: c/t correct (x.x%)".
func (b Bucket) String() string {
	return fmt.Sprintf("%s: %d/%d correct (%.1f%%)", Capitalize(b.Difficulty), b.Correct, b.Total, b.Accuracy())
}

// Collector is safe for concurrent use. Buckets keep first-seen order.
type Collector struct {
	mu      sync.Mutex
	buckets map[string]*Bucket
	order   []string
}

// New returns an empty collector.
func New() *Collector {
	return &Collector{buckets: map[string]*Bucket{}}
}

// Record counts one sub-question.
func (c *Collector) Record(difficulty string, correct bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.buckets[difficulty]
	if !ok {
		bucket = &Bucket{Difficulty: difficulty}
		c.buckets[difficulty] = bucket
		c.order = append(c.order, difficulty)
	}
	bucket.Total++
	if correct {
		bucket.Correct++
	}
}

// Merge adds bucket counts, e.g. ones read back from earlier runs.
func (c *Collector) Merge(buckets []Bucket) {
	for _, b := range buckets {
		c.mu.Lock()
		bucket, ok := c.buckets[b.Difficulty]
		if !ok {
			bucket = &Bucket{Difficulty: b.Difficulty}
			c.buckets[b.Difficulty] = bucket
			c.order = append(c.order, b.Difficulty)
		}
		bucket.Correct += b.Correct
		bucket.Total += b.Total
		c.mu.Unlock()
	}
}

// Buckets returns a snapshot in first-seen order.
func (c *Collector) Buckets() []Bucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Bucket, 0, len(c.order))
	for _, difficulty := range c.order {
		out = append(out, *c.buckets[difficulty])
	}
	return out
}

// Bucket returns the counts of one difficulty.
func (c *Collector) Bucket(difficulty string) Bucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bucket, ok := c.buckets[difficulty]; ok {
		return *bucket
	}
	return Bucket{Difficulty: difficulty}
}

// Print writes one line per difficulty.
func (c *Collector) Print(w io.Writer) error {
	for _, bucket := range c.Buckets() {
		if _, err := fmt.Fprintln(w, bucket.String()); err != nil {
			return err
		}
	}
	return nil
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
