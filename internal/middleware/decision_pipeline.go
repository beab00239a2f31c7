package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SwingDesk/internal/domain/models"
	domrepo "SwingDesk/internal/domain/repository"
	domsvc "SwingDesk/internal/domain/service"
	applogger "SwingDesk/pkg/logger"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidSnapshot = errors.New("invalid snapshot event")
	ErrThrottled       = errors.New("snapshot throttled")
)

// Forwarder receives analyzed decisions (the decision sink).
type Forwarder interface {
	Forward(ctx context.Context, recs []*models.DecisionRecord) error
}

// DecisionPipeline sits between snapshot ingestion and the sink. It validates,
// throttles per symbol, analyzes, and buffers records the sink rejected.
type DecisionPipeline struct {
	analyzer domsvc.Analyzer
	fwd      Forwarder
	metrics  domrepo.Metrics
	log      *applogger.Logger
	validate *validator.Validate

	minInterval time.Duration
	bufCh       chan *models.DecisionRecord
	source      string
	now         func() time.Time

	mu       sync.Mutex
	lastSeen map[string]time.Time
	started  bool
	stopCh   chan struct{}
	done     chan struct{}
}

type PipelineOption func(*DecisionPipeline)

// WithMinInterval drops events for a symbol that arrive sooner than d after the last accepted one.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *DecisionPipeline) {
		if d >= 0 {
			p.minInterval = d
		}
	}
}

// WithBufferSize sets how many records are held while the sink is failing.
func WithBufferSize(n int) PipelineOption {
	return func(p *DecisionPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.DecisionRecord, n)
		}
	}
}

func WithSource(s string) PipelineOption {
	return func(p *DecisionPipeline) { p.source = s }
}

func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *DecisionPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func NewDecisionPipeline(analyzer domsvc.Analyzer, fwd Forwarder, metrics domrepo.Metrics, opts ...PipelineOption) *DecisionPipeline {
	p := &DecisionPipeline{
		analyzer:    analyzer,
		fwd:         fwd,
		metrics:     metrics,
		log:         applogger.Nop(),
		validate:    validator.New(),
		minInterval: time.Second,
		bufCh:       make(chan *models.DecisionRecord, 1000),
		source:      "stream",
		now:         time.Now,
		lastSeen:    make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Component("decision_pipeline")
	return p
}

// Start launches background re-delivery of buffered records.
func (p *DecisionPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.flush(ctx)
}

// Stop ends the flusher and waits for it to exit.
func (p *DecisionPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.done
}

func (p *DecisionPipeline) flush(ctx context.Context) {
	defer close(p.done)
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case rec := <-p.bufCh:
			if err := p.fwd.Forward(ctx, []*models.DecisionRecord{rec}); err != nil {
				if backoff < 2*time.Second {
					backoff *= 2
				}
				p.metrics.RecordSinkError("pipeline_flush")
				select {
				case <-time.After(backoff):
				case <-p.stopCh:
					return
				}
				p.enqueue(rec)
				continue
			}
			backoff = 50 * time.Millisecond
		}
	}
}

// Process runs one snapshot event through the engine. It returns ErrThrottled
// (with a nil record) when the symbol was seen too recently. A sink failure
// buffers the record and is reported as an error alongside it.
func (p *DecisionPipeline) Process(ctx context.Context, ev *models.SnapshotEvent) (*models.DecisionRecord, error) {
	start := p.now()
	if err := p.Validate(ev); err != nil {
		p.metrics.RecordSkip("invalid")
		return nil, err
	}
	if !p.allow(ev.Indicators.Symbol, start) {
		p.metrics.RecordSkip("throttled")
		return nil, ErrThrottled
	}

	d := p.analyzer.Analyze(ev.Indicators, ev.Options)
	rec := &models.DecisionRecord{SetupDecision: d, EvaluatedAt: start.UTC(), Source: p.source}
	p.metrics.RecordDecision(d.AccountID, string(d.State), d.Score)

	if err := p.fwd.Forward(ctx, []*models.DecisionRecord{rec}); err != nil {
		p.metrics.RecordSinkError("pipeline")
		p.enqueue(rec)
		return rec, fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return rec, nil
}

// Validate checks the event's structural constraints.
func (p *DecisionPipeline) Validate(ev *models.SnapshotEvent) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidSnapshot)
	}
	if err := p.validate.Struct(ev.Indicators); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := p.validate.Struct(ev.Options); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}

func (p *DecisionPipeline) enqueue(rec *models.DecisionRecord) {
	select {
	case p.bufCh <- rec:
	default:
		p.metrics.RecordSkip("buffer_full")
		p.log.Warn("buffer full, dropping decision", applogger.String("symbol", rec.Ticker))
	}
}

// Buffered reports how many records wait for re-delivery.
func (p *DecisionPipeline) Buffered() int { return len(p.bufCh) }

func (p *DecisionPipeline) allow(symbol string, now time.Time) bool {
	if p.minInterval <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[symbol]
	if ok && now.Sub(last) < p.minInterval {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
