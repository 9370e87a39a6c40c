package postgres

import (
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Transactions   ports.TransactionRepository
	Disputes       ports.DisputeRepository
	Decisions      ports.DecisionRepository
	Representments ports.RepresentmentRepository
	AuditLogs      ports.AuditLogRepository
	Tasks          ports.TaskRepository
	Outbox         ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Transactions:   &transactionRepository{db: db},
		Disputes:       &disputeRepository{db: db},
		Decisions:      &decisionRepository{db: db},
		Representments: &representmentRepository{db: db},
		AuditLogs:      &auditLogRepository{db: db},
		Tasks:          &taskRepository{db: db},
		Outbox:         &outboxRepository{db: db},
	}
}
