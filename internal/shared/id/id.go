// Package id generates correlation identifiers for outgoing exchanges.
//
// IDs are ULIDs: lexicographically sortable by creation time, so request
// logs on both ends of a connection line up without extra timestamps.
// Prefixes make the kind of ID obvious in logs (xch_*, batch_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Typed IDs
// ============================================================================

// ExchangeID identifies one send, shared by all of its retry attempts
type ExchangeID string

// BatchID identifies one pool call
type BatchID string

const (
	ExchangePrefix = "xch"
	BatchPrefix    = "batch"
)

func (id ExchangeID) String() string { return string(id) }
func (id BatchID) String() string    { return string(id) }

// ============================================================================
// Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator whose IDs increase strictly within the
// same millisecond.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(ulid.Monotonic(rand.Reader, 0))
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy, now: time.Now}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewExchangeID returns a fresh exchange id.
func (g *Generator) NewExchangeID() ExchangeID {
	return ExchangeID(g.GenerateWithPrefix(ExchangePrefix))
}

// NewBatchID returns a fresh pool batch id.
func (g *Generator) NewBatchID() BatchID {
	return BatchID(g.GenerateWithPrefix(BatchPrefix))
}

// ============================================================================
// Parsing
// ============================================================================

// Parse extracts the ULID from a bare or prefixed ID
func Parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.ParseStrict(id)
}

// IsValid checks whether id is a bare or prefixed ULID
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Timestamp returns the creation time embedded in an ID
func Timestamp(id string) (time.Time, error) {
	u, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
