package types

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTTL is the validity window applied when none is given.
	DefaultTTL = TimeDiff(30 * 60 * 1000)
	// MaxTTL is the longest validity window a node will accept.
	MaxTTL = TimeDiff(18 * 60 * 60 * 1000)
)

var ErrInvalidTTL = errors.New("invalid ttl")

// Timestamp is a number of milliseconds since the Unix epoch.
type Timestamp uint64

func Now() Timestamp {
	return Timestamp(time.Now().UnixMilli())
}

// ParseTimestamp accepts an RFC 3339 formatted time.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return Timestamp(t.UnixMilli()), nil
}

func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// String renders the timestamp with millisecond precision, e.g.
// "2020-11-17T00:39:24.072Z".
func (t Timestamp) String() string {
	return t.Time().Format("2006-01-02T15:04:05.000Z")
}

// Bytes returns the canonical encoding, a little-endian u64 of milliseconds.
func (t Timestamp) Bytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(t))
	return b
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeDiff is a duration in milliseconds, used for the deploy time-to-live.
type TimeDiff uint64

// ParseTTL parses a duration literal such as "10s" or "30m" and validates it
// against the deploy TTL bounds.
func ParseTTL(s string) (TimeDiff, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: parsing %q: %v", ErrInvalidTTL, s, err)
	}
	ttl := TimeDiff(d.Milliseconds())
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidTTL, s)
	}
	if err := ttl.Validate(); err != nil {
		return 0, err
	}
	return ttl, nil
}

// Validate rejects a zero TTL and one above MaxTTL.
func (d TimeDiff) Validate() error {
	if d == 0 {
		return fmt.Errorf("%w: must be positive", ErrInvalidTTL)
	}
	if d > MaxTTL {
		return fmt.Errorf("%w: %s exceeds maximum %s", ErrInvalidTTL, d, MaxTTL)
	}
	return nil
}

func (d TimeDiff) Duration() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// String renders the duration in compact unit form, e.g. "30m", "1h30m".
func (d TimeDiff) String() string {
	if d == 0 {
		return "0s"
	}
	ms := uint64(d)
	var sb strings.Builder
	write := func(n uint64, unit string) {
		if n > 0 {
			fmt.Fprintf(&sb, "%d%s", n, unit)
		}
	}
	write(ms/3_600_000, "h")
	write(ms%3_600_000/60_000, "m")
	write(ms%60_000/1000, "s")
	write(ms%1000, "ms")
	return sb.String()
}

// Bytes returns the canonical encoding, a little-endian u64 of milliseconds.
func (d TimeDiff) Bytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(d))
	return b
}

func (d TimeDiff) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *TimeDiff) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding ttl: %w", err)
	}
	dur, err := time.ParseDuration(s)
	if err != nil || dur < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidTTL, s)
	}
	*d = TimeDiff(dur.Milliseconds())
	return nil
}
