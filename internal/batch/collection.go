package batch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/a3tai/ctreport-extractor/internal/report"
)

// ErrDuplicateKey is returned by the error policy when a key repeats.
var ErrDuplicateKey = errors.New("duplicate record key")

// Policy decides what happens when a record's key is already present.
type Policy string

const (
	// PolicyFirst keeps the first record and drops later ones.
	PolicyFirst Policy = "first"
	// PolicyLast replaces the stored record in place.
	PolicyLast Policy = "last"
	// PolicyError rejects the later record with ErrDuplicateKey.
	PolicyError Policy = "error"
)

// ParsePolicy validates a policy name
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyFirst, PolicyLast, PolicyError:
		return p, nil
	case "":
		return PolicyFirst, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Duplicate describes one key collision.
type Duplicate struct {
	Key      string `json:"key"`
	Kept     string `json:"kept"`
	Rejected string `json:"rejected"`
}

// Collection accumulates records by key. Insert is an atomic
// insert-if-absent, so a Collection is safe for concurrent use.
type Collection struct {
	mu         sync.Mutex
	policy     Policy
	index      map[string]int
	records    []report.Record
	duplicates []Duplicate
}

// NewCollection creates an empty collection with the given policy
func NewCollection(policy Policy) *Collection {
	if policy == "" {
		policy = PolicyFirst
	}
	return &Collection{
		policy: policy,
		index:  make(map[string]int),
	}
}

// Insert adds rec under rec.Key(). It reports whether rec is now stored and
// describes any collision. Only the error policy returns an error.
func (c *Collection) Insert(rec report.Record) (bool, *Duplicate, error) {
	key := rec.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	at, exists := c.index[key]
	if !exists {
		c.index[key] = len(c.records)
		c.records = append(c.records, rec)
		return true, nil, nil
	}

	existing := c.records[at]
	switch c.policy {
	case PolicyLast:
		dup := Duplicate{Key: key, Kept: rec.FileName, Rejected: existing.FileName}
		c.records[at] = rec
		c.duplicates = append(c.duplicates, dup)
		return true, &dup, nil
	case PolicyError:
		dup := Duplicate{Key: key, Kept: existing.FileName, Rejected: rec.FileName}
		c.duplicates = append(c.duplicates, dup)
		return false, &dup, fmt.Errorf("%w: %s (%s and %s)", ErrDuplicateKey, key, existing.FileName, rec.FileName)
	default:
		dup := Duplicate{Key: key, Kept: existing.FileName, Rejected: rec.FileName}
		c.duplicates = append(c.duplicates, dup)
		return false, &dup, nil
	}
}

// Records returns the stored records in first-insertion order
func (c *Collection) Records() []report.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]report.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Duplicates returns every collision seen so far
func (c *Collection) Duplicates() []Duplicate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Duplicate, len(c.duplicates))
	copy(out, c.duplicates)
	return out
}

// Len returns the number of stored records
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
