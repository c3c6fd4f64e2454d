// Package publish forwards status flags to an external message broker. Each
// named flag gets its own topic and the whole status is also published as
// one combined message. Publishing is rate limited, and an attached
// publisher sends from its own goroutine so a slow broker never stalls the
// state it is fed from.
package publish

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

const (
	defaultTopicPrefix = "elitepanel"
	defaultRate        = 2.0
	defaultBurst       = 4
)

// Broker sends one message to one topic.
type Broker interface {
	Publish(topic string, payload []byte) error
	Close()
}

// StateSource is where the publisher receives state changes from.
type StateSource interface {
	Subscribe(field state.Field, fn state.Subscriber) (cancel func())
}

// FlagMessage is the payload of a per-flag topic.
type FlagMessage struct {
	Flag      string `json:"flag"`
	Active    bool   `json:"active"`
	Timestamp string `json:"timestamp"`
}

// StatusMessage is the payload of the combined status topic.
type StatusMessage struct {
	Timestamp string   `json:"timestamp"`
	Flags     []string `json:"flags"`
	RawFlags  uint32   `json:"raw_flags"`
	Fuel      float64  `json:"fuel"`
	Balance   int64    `json:"balance"`
	OnFoot    bool     `json:"on_foot"`
}

// sameContent compares everything but the timestamp.
func (m StatusMessage) sameContent(o StatusMessage) bool {
	return m.RawFlags == o.RawFlags && m.Fuel == o.Fuel && m.Balance == o.Balance &&
		m.OnFoot == o.OnFoot && slices.Equal(m.Flags, o.Flags)
}

// Config configures a Publisher.
type Config struct {
	TopicPrefix string
	// RatePerSecond and Burst bound how many status updates are forwarded.
	// Updates over the limit are dropped, not queued.
	RatePerSecond float64
	Burst         int
	// ChangesOnly suppresses flags and status content already published.
	ChangesOnly bool
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Stats counts publisher activity.
type Stats struct {
	Published int64
	Dropped   int64
	Failed    int64
}

// Publisher turns status changes into broker messages.
type Publisher struct {
	broker  Broker
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
	clock   func() time.Time

	mu         sync.Mutex
	lastFlags  map[string]bool
	lastStatus *StatusMessage

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// New creates a Publisher sending to broker.
func New(broker Broker, cfg Config) *Publisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaultTopicPrefix
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Publisher{
		broker:    broker,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:    logger.With("component", "publisher"),
		clock:     clock,
		lastFlags: make(map[string]bool),
	}
}

// Attach subscribes the publisher to status changes from src. Changes are
// handed to one delivery goroutine that keeps only the newest undelivered
// state, so the subscriber callback never waits on the broker. cancel ends
// the subscription and waits for the goroutine; a delivery in progress stops
// before its next message.
func (p *Publisher) Attach(src StateSource) (cancel func()) {
	pending := make(chan *state.AggregatedState, 1)
	quit := make(chan struct{})
	done := make(chan struct{})

	unsubscribe := src.Subscribe(state.FieldStatus, func(st *state.AggregatedState) {
		offerLatest(pending, st)
	})
	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			case st := <-pending:
				p.handle(st, quit)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(quit)
		})
		<-done
	}
}

// offerLatest replaces any undelivered state in pending with st.
func offerLatest(pending chan *state.AggregatedState, st *state.AggregatedState) {
	if st == nil {
		return
	}
	for {
		select {
		case pending <- st:
			return
		default:
		}
		select {
		case <-pending:
		default:
		}
	}
}

// FlagTopic returns the topic for one named flag.
func (p *Publisher) FlagTopic(name string) string {
	return p.cfg.TopicPrefix + "/flags/" + name
}

// StatusTopic returns the combined status topic.
func (p *Publisher) StatusTopic() string {
	return p.cfg.TopicPrefix + "/status"
}

// HandleState publishes the status held in st on the caller's goroutine.
// Nothing is sent before the first load completes or while no status is
// known.
func (p *Publisher) HandleState(st *state.AggregatedState) {
	p.handle(st, nil)
}

// handle publishes st, giving up between messages once quit is closed.
func (p *Publisher) handle(st *state.AggregatedState, quit <-chan struct{}) {
	if st == nil || !st.FirstLoadCompleted {
		return
	}
	status := st.Status()
	if status == nil {
		return
	}
	if !p.limiter.Allow() {
		p.dropped.Add(1)
		p.logger.Debug("publish: rate limited, update dropped")
		return
	}

	ts := status.Timestamp
	if ts.IsZero() {
		ts = p.clock()
	}
	stamp := ts.UTC().Format(time.RFC3339)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, name := range snapshot.AllFlagNames() {
		if stopping(quit) {
			return
		}
		active := status.FlagActive(name)
		if prev, seen := p.lastFlags[name]; seen && prev == active && p.cfg.ChangesOnly {
			continue
		}
		msg := FlagMessage{Flag: name, Active: active, Timestamp: stamp}
		if p.send(p.FlagTopic(name), msg) {
			p.lastFlags[name] = active
		}
	}

	msg := statusMessage(status, stamp)
	if stopping(quit) {
		return
	}
	if p.cfg.ChangesOnly && p.lastStatus != nil && p.lastStatus.sameContent(msg) {
		return
	}
	if p.send(p.StatusTopic(), msg) {
		p.lastStatus = &msg
	}
}

func stopping(quit <-chan struct{}) bool {
	select {
	case <-quit:
		return true
	default:
		return false
	}
}

func statusMessage(status *snapshot.Status, stamp string) StatusMessage {
	msg := StatusMessage{
		Timestamp: stamp,
		Flags:     status.FlagNames(),
		RawFlags:  uint32(status.Flags),
		Balance:   status.Balance,
		OnFoot:    status.OnFoot(),
	}
	if msg.Flags == nil {
		msg.Flags = []string{}
	}
	if status.Fuel != nil {
		msg.Fuel = status.Fuel.FuelMain
	}
	return msg
}

// send marshals v and publishes it, reporting success.
func (p *Publisher) send(topic string, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("publish: encode failed", "topic", topic, "error", err)
		return false
	}
	if err := p.broker.Publish(topic, payload); err != nil {
		p.failed.Add(1)
		p.logger.Warn("publish: send failed", "topic", topic, "error", err)
		return false
	}
	p.published.Add(1)
	return true
}

// Stats returns activity counters.
func (p *Publisher) Stats() Stats {
	return Stats{
		Published: p.published.Load(),
		Dropped:   p.dropped.Load(),
		Failed:    p.failed.Load(),
	}
}
