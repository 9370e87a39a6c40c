package postgres

import (
	"encoding/json"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

func toDomainTransaction(rec transactionModel) domain.Transaction {
	return domain.Transaction{
		TransactionID:      rec.TransactionID,
		CustomerID:         rec.CustomerID,
		CardLastFour:       rec.CardLastFour,
		Amount:             rec.Amount,
		Currency:           rec.Currency,
		LocalAmount:        rec.LocalAmount,
		LocalCurrency:      rec.LocalCurrency,
		MerchantName:       rec.MerchantName,
		MerchantCategory:   rec.MerchantCategory,
		Acquirer:           rec.Acquirer,
		Network:            rec.Network,
		POSEntryMode:       rec.POSEntryMode,
		IsWallet:           rec.IsWallet,
		WalletType:         rec.WalletType,
		SecuredIndication:  rec.SecuredIndication,
		Settled:            rec.Settled,
		SettledAt:          rec.SettledAt,
		RefundReceived:     rec.RefundReceived,
		RefundAmount:       rec.RefundAmount,
		OccurredAt:         rec.OccurredAt,
		DisputeStatus:      rec.DisputeStatus,
		TempCreditIssuedAt: rec.TempCreditIssuedAt,
		TempCreditRef:      rec.TempCreditRef,
		CreditReversedAt:   rec.CreditReversedAt,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
}

func toTransactionModel(t domain.Transaction) transactionModel {
	return transactionModel{
		TransactionID:      t.TransactionID,
		CustomerID:         t.CustomerID,
		CardLastFour:       t.CardLastFour,
		Amount:             t.Amount,
		Currency:           t.Currency,
		LocalAmount:        t.LocalAmount,
		LocalCurrency:      t.LocalCurrency,
		MerchantName:       t.MerchantName,
		MerchantCategory:   t.MerchantCategory,
		Acquirer:           t.Acquirer,
		Network:            t.Network,
		POSEntryMode:       t.POSEntryMode,
		IsWallet:           t.IsWallet,
		WalletType:         t.WalletType,
		SecuredIndication:  t.SecuredIndication,
		Settled:            t.Settled,
		SettledAt:          t.SettledAt,
		RefundReceived:     t.RefundReceived,
		RefundAmount:       t.RefundAmount,
		OccurredAt:         t.OccurredAt,
		DisputeStatus:      t.DisputeStatus,
		TempCreditIssuedAt: t.TempCreditIssuedAt,
		TempCreditRef:      t.TempCreditRef,
		CreditReversedAt:   t.CreditReversedAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func toDomainDispute(rec disputeModel) domain.Dispute {
	var evidence []domain.EvidenceItem
	if rec.Evidence != "" {
		_ = json.Unmarshal([]byte(rec.Evidence), &evidence)
	}
	return domain.Dispute{
		DisputeID:     rec.DisputeID,
		TransactionID: rec.TransactionID,
		CustomerID:    rec.CustomerID,
		ReasonCode:    rec.ReasonCode,
		CustomReason:  rec.CustomReason,
		Evidence:      evidence,
		Status:        rec.Status,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func toDisputeModel(d domain.Dispute) disputeModel {
	evidence, _ := json.Marshal(d.Evidence)
	if d.Evidence == nil {
		evidence = []byte("[]")
	}
	return disputeModel{
		DisputeID:     d.DisputeID,
		TransactionID: d.TransactionID,
		CustomerID:    d.CustomerID,
		ReasonCode:    d.ReasonCode,
		CustomReason:  d.CustomReason,
		Evidence:      string(evidence),
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func toDomainDecision(rec decisionModel) domain.Decision {
	var flags []string
	var actions []domain.ActionKind
	var missing []string
	var audit domain.DecisionAudit
	_ = json.Unmarshal([]byte(rec.Flags), &flags)
	_ = json.Unmarshal([]byte(rec.NextActions), &actions)
	_ = json.Unmarshal([]byte(rec.MissingDocuments), &missing)
	_ = json.Unmarshal([]byte(rec.Audit), &audit)
	return domain.Decision{
		DecisionID:         rec.DecisionID,
		TransactionID:      rec.TransactionID,
		DisputeID:          rec.DisputeID,
		Kind:               domain.DecisionKind(rec.DecisionKind),
		PolicyCode:         rec.PolicyCode,
		ReasonSummary:      rec.ReasonSummary,
		Flags:              flags,
		NextActions:        actions,
		MissingDocuments:   missing,
		BaseAmountUSD:      rec.BaseAmountUSD,
		RemainingAmountUSD: rec.RemainingAmountUSD,
		InputFingerprint:   rec.InputFingerprint,
		Audit:              audit,
		CreatedAt:          rec.CreatedAt,
	}
}

func toDecisionModel(d domain.Decision) decisionModel {
	flags := mustJSONArray(d.Flags)
	actions := mustJSONArray(d.NextActions)
	missing := mustJSONArray(d.MissingDocuments)
	audit, _ := json.Marshal(d.Audit)
	return decisionModel{
		DecisionID:         d.DecisionID,
		TransactionID:      d.TransactionID,
		DisputeID:          d.DisputeID,
		DecisionKind:       string(d.Kind),
		PolicyCode:         d.PolicyCode,
		ReasonSummary:      d.ReasonSummary,
		Flags:              flags,
		NextActions:        actions,
		MissingDocuments:   missing,
		BaseAmountUSD:      d.BaseAmountUSD,
		RemainingAmountUSD: d.RemainingAmountUSD,
		InputFingerprint:   d.InputFingerprint,
		Audit:              string(audit),
		CreatedAt:          d.CreatedAt,
	}
}

func mustJSONArray[T any](v []T) string {
	if v == nil {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func toDomainRepresentment(rec representmentModel) domain.RepresentmentRecord {
	return domain.RepresentmentRecord{
		TransactionID:       rec.TransactionID,
		Status:              domain.RepresentmentStatus(rec.Status),
		MerchantReason:      rec.MerchantReason,
		MerchantEvidenceRef: rec.MerchantEvidenceRef,
		NeedsAttention:      rec.NeedsAttention,
		CreditReversedAt:    rec.CreditReversedAt,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
}

func toRepresentmentModel(r domain.RepresentmentRecord) representmentModel {
	return representmentModel{
		TransactionID:       r.TransactionID,
		Status:              string(r.Status),
		MerchantReason:      r.MerchantReason,
		MerchantEvidenceRef: r.MerchantEvidenceRef,
		NeedsAttention:      r.NeedsAttention,
		CreditReversedAt:    r.CreditReversedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toDomainOutboxRecord(rec outboxModel) ports.OutboxRecord {
	var envelope contracts.EventEnvelope
	_ = json.Unmarshal([]byte(rec.Envelope), &envelope)
	return ports.OutboxRecord{
		RecordID:   rec.RecordID,
		EventClass: rec.EventClass,
		Envelope:   envelope,
		CreatedAt:  rec.CreatedAt,
		SentAt:     rec.SentAt,
	}
}
