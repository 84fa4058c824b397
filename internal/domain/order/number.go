package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultNumberPrefix is used when no prefix is configured
const DefaultNumberPrefix = "ORD"

// SequenceSource hands out the numeric suffix for a given calendar day (YYYYMMDD)
type SequenceSource interface {
	Next(ctx context.Context, day string) (int64, error)
}

// SequenceFloor reports the highest suffix already stored for a prefix and
// day, or zero when the day has no orders yet. Counter-backed sources use it
// to resume after losing their state.
type SequenceFloor interface {
	MaxSequence(ctx context.Context, prefix, day string) (int64, error)
}

// RandomSequence draws a random 4-digit suffix. Collisions are possible and
// are resolved by the storage-level unique index plus the creation retry loop.
type RandomSequence struct{}

// Next implements SequenceSource
func (RandomSequence) Next(_ context.Context, _ string) (int64, error) {
	return rand.Int64N(10000), nil
}

// NumberGenerator formats order numbers as PREFIX-YYYYMMDD-NNNN.
// It does not guarantee uniqueness on its own.
type NumberGenerator struct {
	prefix   string
	location *time.Location
	source   SequenceSource
	now      func() time.Time
}

// NewNumberGenerator creates a generator. A nil location means UTC and a nil
// source means RandomSequence.
func NewNumberGenerator(prefix string, location *time.Location, source SequenceSource) *NumberGenerator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	if location == nil {
		location = time.UTC
	}
	if source == nil {
		source = RandomSequence{}
	}
	return &NumberGenerator{
		prefix:   prefix,
		location: location,
		source:   source,
		now:      time.Now,
	}
}

// WithClock replaces the time source, for tests
func (g *NumberGenerator) WithClock(now func() time.Time) *NumberGenerator {
	g.now = now
	return g
}

// Next produces a candidate order number for today
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	day := g.now().In(g.location).Format("20060102")
	seq, err := g.source.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", g.prefix, day, seq), nil
}

var numberPattern = regexp.MustCompile(`^[A-Z]+-\d{8}-\d{4,}$`)

// SequenceOf extracts the numeric suffix of a well-formed order number
func SequenceOf(number string) (int64, error) {
	if !IsWellFormedNumber(number) {
		return 0, fmt.Errorf("malformed order number %q", number)
	}
	return strconv.ParseInt(number[strings.LastIndexByte(number, '-')+1:], 10, 64)
}

// IsWellFormedNumber reports whether s looks like an order number
func IsWellFormedNumber(s string) bool {
	return numberPattern.MatchString(s)
}
