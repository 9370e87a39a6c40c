package application

import (
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

type Config struct {
	ServiceName          string
	EventDedupTTL        time.Duration
	OutboxFlushBatchSize int
	DispatchTimeout      time.Duration
	DispatchRetries      int
	DispatchBackoff      time.Duration
	RecheckDelay         time.Duration
	RecheckBatchSize     int
}

type Actor struct {
	SubjectID string
	Role      string
	RequestID string
}

type EvaluateInput struct {
	TransactionID string
	DisputeID     string
	EvidenceItems []domain.EvidenceItem
}

type CustomerEvidenceInput struct {
	EvidenceItems []domain.EvidenceItem
	Notes         string
}

type Service struct {
	cfg Config

	transactions   ports.TransactionRepository
	disputes       ports.DisputeRepository
	decisions      ports.DecisionRepository
	representments ports.RepresentmentRepository
	auditLogs      ports.AuditLogRepository
	tasks          ports.TaskRepository
	eventDedup     ports.EventDedupRepository
	outbox         ports.OutboxRepository
	rechecks       ports.RecheckQueue

	ledger ports.CreditLedger
	filer  ports.NetworkFiler

	domainEvents ports.DomainPublisher
	analytics    ports.AnalyticsPublisher
	dlq          ports.DLQPublisher

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config

	Transactions   ports.TransactionRepository
	Disputes       ports.DisputeRepository
	Decisions      ports.DecisionRepository
	Representments ports.RepresentmentRepository
	AuditLogs      ports.AuditLogRepository
	Tasks          ports.TaskRepository
	EventDedup     ports.EventDedupRepository
	Outbox         ports.OutboxRepository
	Rechecks       ports.RecheckQueue

	Ledger ports.CreditLedger
	Filer  ports.NetworkFiler

	DomainEvents ports.DomainPublisher
	Analytics    ports.AnalyticsPublisher
	DLQ          ports.DLQPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M47-Chargeback-Engine"
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.OutboxFlushBatchSize <= 0 {
		cfg.OutboxFlushBatchSize = 100
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 5 * time.Second
	}
	if cfg.DispatchRetries <= 0 {
		cfg.DispatchRetries = 2
	}
	if cfg.DispatchBackoff <= 0 {
		cfg.DispatchBackoff = 200 * time.Millisecond
	}
	if cfg.RecheckDelay <= 0 {
		cfg.RecheckDelay = 3 * 24 * time.Hour
	}
	if cfg.RecheckBatchSize <= 0 {
		cfg.RecheckBatchSize = 50
	}
	return &Service{
		cfg:            cfg,
		transactions:   deps.Transactions,
		disputes:       deps.Disputes,
		decisions:      deps.Decisions,
		representments: deps.Representments,
		auditLogs:      deps.AuditLogs,
		tasks:          deps.Tasks,
		eventDedup:     deps.EventDedup,
		outbox:         deps.Outbox,
		rechecks:       deps.Rechecks,
		ledger:         deps.Ledger,
		filer:          deps.Filer,
		domainEvents:   deps.DomainEvents,
		analytics:      deps.Analytics,
		dlq:            deps.DLQ,
		nowFn:          func() time.Time { return time.Now().UTC() },
	}
}
