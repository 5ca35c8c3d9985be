package decorator

import (
	"encoding/hex"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// fingerprintMessageLimit bounds the message prefix hashed into a
// fingerprint.
const fingerprintMessageLimit = 200

// Strategy decides whether a record passes the sampling gate.
type Strategy interface {
	// Accept reports whether the record is forwarded.
	Accept(level record.Level, message string) bool

	// Name identifies the strategy ("rate", "percentage", ...).
	Name() string

	// Statistics exposes the strategy's configuration and live state.
	Statistics() map[string]any
}

// Sampling forwards a record to the wrapped handler iff its strategy
// accepts it.
type Sampling struct {
	*handler.Base
	child    handler.Streamable
	strategy Strategy
}

var _ handler.Streamable = (*Sampling)(nil)

// NewSampling wraps child with the given strategy.
func NewSampling(child handler.Streamable, strategy Strategy) *Sampling {
	return &Sampling{
		Base:     handler.NewBase("sampling", record.Debug),
		child:    child,
		strategy: strategy,
	}
}

// Handle forwards accepted records and drops the rest.
func (s *Sampling) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	if !s.strategy.Accept(level, message) {
		return "", false, nil
	}
	return s.child.Handle(level, message, callContext)
}

// Statistics exposes the strategy's view.
func (s *Sampling) Statistics() map[string]any {
	stats := s.strategy.Statistics()
	stats["strategy"] = s.strategy.Name()
	return stats
}

// SetContext propagates the context to the wrapped handler.
func (s *Sampling) SetContext(context string) {
	s.Base.SetContext(context)
	s.child.SetContext(context)
}

// SetFormatter propagates the formatter to the wrapped handler.
func (s *Sampling) SetFormatter(f format.Formatter) {
	s.Base.SetFormatter(f)
	s.child.SetFormatter(f)
}

// SetStream propagates the stream override to the wrapped handler.
func (s *Sampling) SetStream(w io.Writer) {
	s.Base.SetStream(w)
	s.child.SetStream(w)
}

// rateStrategy accepts the first N records of each wall-clock second.
type rateStrategy struct {
	mu            sync.Mutex
	rate          int
	currentSecond int64
	count         int
	now           func() time.Time
}

// NewRateStrategy creates a first-N-per-second gate. Rates below one are
// raised to one.
func NewRateStrategy(rate int) Strategy {
	if rate < 1 {
		rate = 1
	}
	return &rateStrategy{rate: rate, now: time.Now}
}

func (r *rateStrategy) Accept(record.Level, string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	second := r.now().Unix()
	if second != r.currentSecond {
		r.currentSecond = second
		r.count = 0
	}
	r.count++
	return r.count <= r.rate
}

func (r *rateStrategy) Name() string {
	return "rate"
}

func (r *rateStrategy) Statistics() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]any{
		"rate":                 r.rate,
		"current_second_count": r.count,
	}
}

// percentageStrategy accepts a uniform fraction of records.
type percentageStrategy struct {
	percentage int
	draw       func() int
}

// NewPercentageStrategy accepts roughly percentage percent of records.
// The bound is clamped to [0, 100].
func NewPercentageStrategy(percentage int) Strategy {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	return &percentageStrategy{
		percentage: percentage,
		draw:       func() int { return rand.IntN(100) + 1 },
	}
}

func (p *percentageStrategy) Accept(record.Level, string) bool {
	return p.draw() <= p.percentage
}

func (p *percentageStrategy) Name() string {
	return "percentage"
}

func (p *percentageStrategy) Statistics() map[string]any {
	return map[string]any{"percentage": p.percentage}
}

// smartStrategy always accepts records at or above the least severe of the
// always-log levels and samples the rest by percentage.
type smartStrategy struct {
	threshold  record.Level
	percentage Strategy
	pct        int
}

// NewSmartStrategy accepts every record whose level rank is at least the
// minimum rank among alwaysLogLevels; lower records pass the percentage
// gate. An empty level list defaults the threshold to error.
func NewSmartStrategy(alwaysLogLevels []record.Level, samplePercentage int) Strategy {
	threshold := record.Error
	for i, l := range alwaysLogLevels {
		if i == 0 || l < threshold {
			threshold = l
		}
	}
	return &smartStrategy{
		threshold:  threshold,
		percentage: NewPercentageStrategy(samplePercentage),
		pct:        samplePercentage,
	}
}

func (s *smartStrategy) Accept(level record.Level, message string) bool {
	if level >= s.threshold {
		return true
	}
	return s.percentage.Accept(level, message)
}

func (s *smartStrategy) Name() string {
	return "smart"
}

func (s *smartStrategy) Statistics() map[string]any {
	return map[string]any{
		"always_log_threshold": s.threshold.String(),
		"sample_percentage":    s.pct,
	}
}

// fingerprintStrategy deduplicates identical records inside a sliding
// window.
type fingerprintStrategy struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]*fingerprintEntry
	now    func() time.Time
}

type fingerprintEntry struct {
	count     int
	firstSeen time.Time
	lastSeen  time.Time
}

// NewFingerprintStrategy deduplicates records whose (level, message
// prefix) fingerprints collide within the window.
func NewFingerprintStrategy(window time.Duration) Strategy {
	return &fingerprintStrategy{
		window: window,
		seen:   make(map[string]*fingerprintEntry),
		now:    time.Now,
	}
}

func (f *fingerprintStrategy) Accept(level record.Level, message string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for key, entry := range f.seen {
		if now.Sub(entry.lastSeen) > f.window {
			delete(f.seen, key)
		}
	}

	key := fingerprint(level, message)
	if entry, ok := f.seen[key]; ok {
		entry.count++
		entry.lastSeen = now
		return false
	}
	f.seen[key] = &fingerprintEntry{count: 1, firstSeen: now, lastSeen: now}
	return true
}

func (f *fingerprintStrategy) Name() string {
	return "fingerprint"
}

func (f *fingerprintStrategy) Statistics() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return map[string]any{
		"window_seconds":       f.window.Seconds(),
		"tracked_fingerprints": len(f.seen),
	}
}

// fingerprint hashes level and message prefix into a 128-bit key, so the
// same message at different levels stays distinct.
func fingerprint(level record.Level, message string) string {
	if len(message) > fingerprintMessageLimit {
		message = message[:fingerprintMessageLimit]
	}
	h := fnv.New128a()
	h.Write([]byte(level.String()))
	h.Write([]byte{':'})
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
