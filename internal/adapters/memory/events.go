package memory

import (
	"context"
	"io"
	"sync"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

// Consumer feeds pre-seeded envelopes to the worker loop; io.EOF marks the
// queue drained, matching the kafka consumer's end-of-poll behavior.
type Consumer struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
}

func NewConsumer() *Consumer {
	return &Consumer{events: []contracts.EventEnvelope{}}
}

func (c *Consumer) Seed(events []contracts.EventEnvelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

func (c *Consumer) Receive(_ context.Context) (*contracts.EventEnvelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return nil, io.EOF
	}
	item := c.events[0]
	c.events = c.events[1:]
	return &item, nil
}

// DomainPublisher records published domain events for assertions. FailNext
// simulates a broker outage.
type DomainPublisher struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
	fail   bool
}

func NewDomainPublisher() *DomainPublisher {
	return &DomainPublisher{events: []contracts.EventEnvelope{}}
}

func (p *DomainPublisher) FailNext(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

func (p *DomainPublisher) PublishDomain(_ context.Context, event contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return io.ErrClosedPipe
	}
	p.events = append(p.events, event)
	return nil
}

func (p *DomainPublisher) Events() []contracts.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.EventEnvelope, len(p.events))
	copy(out, p.events)
	return out
}

type AnalyticsPublisher struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
}

func NewAnalyticsPublisher() *AnalyticsPublisher {
	return &AnalyticsPublisher{events: []contracts.EventEnvelope{}}
}

func (p *AnalyticsPublisher) PublishAnalytics(_ context.Context, event contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *AnalyticsPublisher) Events() []contracts.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.EventEnvelope, len(p.events))
	copy(out, p.events)
	return out
}

type DLQPublisher struct {
	mu      sync.Mutex
	records []contracts.DLQRecord
}

func NewDLQPublisher() *DLQPublisher {
	return &DLQPublisher{records: []contracts.DLQRecord{}}
}

func (p *DLQPublisher) PublishDLQ(_ context.Context, record contracts.DLQRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, record)
	return nil
}

func (p *DLQPublisher) Records() []contracts.DLQRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.DLQRecord, len(p.records))
	copy(out, p.records)
	return out
}

var (
	_ ports.EventConsumer      = (*Consumer)(nil)
	_ ports.DomainPublisher    = (*DomainPublisher)(nil)
	_ ports.AnalyticsPublisher = (*AnalyticsPublisher)(nil)
	_ ports.DLQPublisher       = (*DLQPublisher)(nil)
)
