package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

type fixture struct {
	repos     *memory.Repositories
	ledger    *memory.CreditLedger
	filer     *memory.NetworkFiler
	domainPub *memory.DomainPublisher
	analytics *memory.AnalyticsPublisher
	dlq       *memory.DLQPublisher
	svc       *Service
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos:     memory.NewRepositories(),
		ledger:    memory.NewCreditLedger(),
		filer:     memory.NewNetworkFiler(),
		domainPub: memory.NewDomainPublisher(),
		analytics: memory.NewAnalyticsPublisher(),
		dlq:       memory.NewDLQPublisher(),
		now:       time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(Dependencies{
		Config: Config{
			DispatchTimeout: 100 * time.Millisecond,
			DispatchRetries: 1,
			DispatchBackoff: time.Millisecond,
			RecheckDelay:    time.Hour,
		},
		Transactions:   f.repos.Transactions,
		Disputes:       f.repos.Disputes,
		Decisions:      f.repos.Decisions,
		Representments: f.repos.Representments,
		AuditLogs:      f.repos.AuditLogs,
		Tasks:          f.repos.Tasks,
		EventDedup:     f.repos.EventDedup,
		Outbox:         f.repos.Outbox,
		Rechecks:       f.repos.Rechecks,
		Ledger:         f.ledger,
		Filer:          f.filer,
		DomainEvents:   f.domainPub,
		Analytics:      f.analytics,
		DLQ:            f.dlq,
	})
	f.svc.nowFn = func() time.Time { return f.now }
	return f
}

var (
	analyst   = Actor{SubjectID: "usr-analyst", Role: "user"}
	bankAdmin = Actor{SubjectID: "usr-staff", Role: "bank_admin"}
)

// seedSecured stores a settled OTP-verified USD transaction with an open
// goods-not-received dispute.
func (f *fixture) seedSecured() (domain.Transaction, domain.Dispute) {
	settled := f.now.AddDate(0, 0, -9)
	txn := domain.Transaction{
		TransactionID:     "txn-1",
		CustomerID:        "cust-1",
		Amount:            180,
		Currency:          "USD",
		MerchantName:      "ACME SUPPLY CO",
		MerchantCategory:  "5411",
		Network:           "VISA",
		SecuredIndication: "OTP_VERIFIED",
		Settled:           true,
		SettledAt:         &settled,
		OccurredAt:        f.now.AddDate(0, 0, -10),
		DisputeStatus:     domain.DisputeStatusNone,
	}
	dispute := domain.Dispute{
		DisputeID:     "dsp-1",
		TransactionID: txn.TransactionID,
		CustomerID:    txn.CustomerID,
		ReasonCode:    domain.ReasonNotReceived,
		Status:        domain.DisputeStatusNone,
	}
	f.repos.Transactions.Seed(txn)
	f.repos.Disputes.Seed(dispute)
	return txn, dispute
}

func notReceivedEvidence() []domain.EvidenceItem {
	return []domain.EvidenceItem{
		{Key: domain.DocInvoice, IsValid: true},
		{Key: domain.DocTrackingProof, IsValid: true},
	}
}

// fileChargeback evaluates the seeded dispute through to chargeback-filed
// status with a temporary credit issued.
func (f *fixture) fileChargeback(t *testing.T) domain.Decision {
	t.Helper()
	f.seedSecured()
	d, err := f.svc.Evaluate(context.Background(), analyst, EvaluateInput{
		TransactionID: "txn-1",
		DisputeID:     "dsp-1",
		EvidenceItems: notReceivedEvidence(),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Kind != domain.DecisionFileChargebackTempCredit {
		t.Fatalf("Kind = %q", d.Kind)
	}
	return d
}

func TestEvaluateFilesWithTempCredit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	txn, err := f.repos.Transactions.GetByID(ctx, "txn-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if txn.DisputeStatus != domain.DisputeStatusChargebackFiled {
		t.Fatalf("DisputeStatus = %q", txn.DisputeStatus)
	}
	if txn.TempCreditIssuedAt == nil || txn.TempCreditRef == "" {
		t.Fatalf("temporary credit not recorded: %+v", txn)
	}
	if len(f.ledger.Issued) != 1 {
		t.Fatalf("ledger issuances = %d", len(f.ledger.Issued))
	}
	if f.filer.FiledCount() != 1 {
		t.Fatalf("network filings = %d", f.filer.FiledCount())
	}

	// A chargeback-filed transaction gets its workflow record lazily.
	rec, err := f.repos.Representments.GetByTransactionID(ctx, "txn-1")
	if err != nil {
		t.Fatalf("representment record missing: %v", err)
	}
	if rec.Status != domain.RepresentmentNone {
		t.Fatalf("Status = %q", rec.Status)
	}
}

func TestEvaluateIdempotentOnIdenticalInputs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	first := f.fileChargeback(t)
	ctx := context.Background()

	second, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{
		TransactionID: "txn-1",
		DisputeID:     "dsp-1",
		EvidenceItems: notReceivedEvidence(),
	})
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if second.DecisionID != first.DecisionID {
		t.Fatalf("re-evaluation minted a new decision: %q vs %q", second.DecisionID, first.DecisionID)
	}
	// Replays never repeat side effects.
	if len(f.ledger.Issued) != 1 {
		t.Fatalf("ledger issuances = %d after replay", len(f.ledger.Issued))
	}
	if f.filer.FiledCount() != 1 {
		t.Fatalf("network filings = %d after replay", f.filer.FiledCount())
	}

	history, err := f.svc.ListDecisions(ctx, analyst, "txn-1")
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("decision history = %d rows", len(history))
	}
}

func TestEvaluateChangedEvidenceMintsNewDecision(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedSecured()
	ctx := context.Background()

	first, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{TransactionID: "txn-1", DisputeID: "dsp-1"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{
		TransactionID: "txn-1",
		DisputeID:     "dsp-1",
		EvidenceItems: notReceivedEvidence(),
	})
	if err != nil {
		t.Fatalf("Evaluate with evidence: %v", err)
	}
	if first.InputFingerprint == second.InputFingerprint {
		t.Fatalf("changed evidence did not change the fingerprint")
	}
	if first.DecisionID == second.DecisionID {
		t.Fatalf("changed evidence reused the prior decision")
	}
}

func TestEvaluateInputValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedSecured()
	ctx := context.Background()

	if _, err := f.svc.Evaluate(ctx, Actor{}, EvaluateInput{TransactionID: "txn-1", DisputeID: "dsp-1"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("missing actor: err = %v", err)
	}
	if _, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{TransactionID: "txn-1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing dispute id: err = %v", err)
	}
	_, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{
		TransactionID: "txn-1",
		DisputeID:     "dsp-1",
		EvidenceItems: []domain.EvidenceItem{{Key: "notarized_affidavit", IsValid: true}},
	})
	if !errors.Is(err, domain.ErrUnknownDocumentKey) {
		t.Fatalf("unknown document key: err = %v", err)
	}
	if _, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{TransactionID: "txn-missing", DisputeID: "dsp-1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown transaction: err = %v", err)
	}
}

func TestEvaluateWriteoffIssuesPermanentCredit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedSecured()
	ctx := context.Background()

	txn, _ := f.repos.Transactions.GetByID(ctx, "txn-1")
	txn.Amount = 9.99
	f.repos.Transactions.Seed(txn)

	d, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{TransactionID: "txn-1", DisputeID: "dsp-1"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Kind != domain.DecisionApproveWriteoff {
		t.Fatalf("Kind = %q", d.Kind)
	}
	if len(f.ledger.Permanent) != 1 {
		t.Fatalf("permanent credits = %d", len(f.ledger.Permanent))
	}
	updated, _ := f.repos.Transactions.GetByID(ctx, "txn-1")
	if updated.DisputeStatus != domain.DisputeStatusWrittenOff {
		t.Fatalf("DisputeStatus = %q", updated.DisputeStatus)
	}
}

func TestEvaluateFilingFailureKeepsDecision(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedSecured()
	f.filer.Fail(true)
	ctx := context.Background()

	d, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{
		TransactionID: "txn-1",
		DisputeID:     "dsp-1",
		EvidenceItems: notReceivedEvidence(),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Kind != domain.DecisionFileChargebackTempCredit {
		t.Fatalf("Kind = %q", d.Kind)
	}

	// The decision stands; the failed filing lands in the work queue.
	history, _ := f.svc.ListDecisions(ctx, analyst, "txn-1")
	if len(history) != 1 {
		t.Fatalf("decision history = %d rows", len(history))
	}
	failed, err := f.repos.Tasks.ListByKind(ctx, domain.TaskKindFailedAction, 10)
	if err != nil || len(failed) == 0 {
		t.Fatalf("failed-action tasks = %d, err = %v", len(failed), err)
	}
}

func TestEvaluateWaitForSettlementSchedulesRecheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedSecured()
	ctx := context.Background()

	txn, _ := f.repos.Transactions.GetByID(ctx, "txn-1")
	txn.Settled = false
	txn.SettledAt = nil
	txn.OccurredAt = f.now.AddDate(0, 0, -1)
	f.repos.Transactions.Seed(txn)

	d, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{
		TransactionID: "txn-1",
		DisputeID:     "dsp-1",
		EvidenceItems: notReceivedEvidence(),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Kind != domain.DecisionWaitForSettlement {
		t.Fatalf("Kind = %q", d.Kind)
	}
	due, err := f.repos.Rechecks.Due(ctx, f.now.Add(2*time.Hour), 10)
	if err != nil || len(due) != 1 || due[0] != "txn-1" {
		t.Fatalf("recheck queue = %v, err = %v", due, err)
	}
}

func TestProcessDueRechecksReevaluatesAfterSettlement(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedSecured()
	ctx := context.Background()

	txn, _ := f.repos.Transactions.GetByID(ctx, "txn-1")
	txn.Settled = false
	txn.SettledAt = nil
	txn.OccurredAt = f.now.AddDate(0, 0, -1)
	f.repos.Transactions.Seed(txn)

	if _, err := f.svc.Evaluate(ctx, analyst, EvaluateInput{
		TransactionID: "txn-1",
		DisputeID:     "dsp-1",
		EvidenceItems: notReceivedEvidence(),
	}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// Settlement arrives, then the recheck falls due.
	settled := f.now.Add(30 * time.Minute)
	txn.Settled = true
	txn.SettledAt = &settled
	f.repos.Transactions.Seed(txn)
	f.now = f.now.Add(2 * time.Hour)

	n, err := f.svc.ProcessDueRechecks(ctx)
	if err != nil {
		t.Fatalf("ProcessDueRechecks: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed = %d", n)
	}
	history, _ := f.svc.ListDecisions(ctx, analyst, "txn-1")
	if len(history) != 2 {
		t.Fatalf("decision history = %d rows", len(history))
	}
	latest := history[len(history)-1]
	if latest.Kind != domain.DecisionFileChargebackTempCredit {
		t.Fatalf("recheck decision = %q", latest.Kind)
	}
	// A settled decision retires the queue entry.
	due, _ := f.repos.Rechecks.Due(ctx, f.now.Add(24*time.Hour), 10)
	if len(due) != 0 {
		t.Fatalf("recheck queue not drained: %v", due)
	}
}

func TestMerchantContestedRequiresFiledChargeback(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedSecured()
	ctx := context.Background()

	err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", "doc://evidence/1")
	if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("contest before filing: err = %v", err)
	}
}

func TestMerchantContestedOpensRepresentment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", "doc://evidence/1"); err != nil {
		t.Fatalf("MerchantContested: %v", err)
	}
	rec, err := f.svc.GetRepresentment(ctx, analyst, "txn-1")
	if err != nil {
		t.Fatalf("GetRepresentment: %v", err)
	}
	if rec.Status != domain.RepresentmentPending || !rec.NeedsAttention {
		t.Fatalf("record = %+v", rec)
	}

	// A second contest replay is an invalid transition, not a silent no-op.
	err = f.svc.MerchantContested(ctx, "txn-1", "goods delivered", "doc://evidence/1")
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("replayed contest: err = %v", err)
	}
}

func TestMerchantAcceptedClosesInCustomersFavor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantAccepted(ctx, "txn-1"); err != nil {
		t.Fatalf("MerchantAccepted: %v", err)
	}
	txn, _ := f.repos.Transactions.GetByID(ctx, "txn-1")
	if txn.DisputeStatus != domain.DisputeStatusResolvedWon {
		t.Fatalf("DisputeStatus = %q", txn.DisputeStatus)
	}
	// The temporary credit becomes final; nothing is reversed.
	if f.ledger.ReversalCount("txn-1") != 0 {
		t.Fatalf("credit reversed on merchant acceptance")
	}
}

func TestAcceptRepresentmentReversesCreditExactlyOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", ""); err != nil {
		t.Fatalf("MerchantContested: %v", err)
	}
	rec, err := f.svc.AcceptRepresentment(ctx, bankAdmin, "txn-1")
	if err != nil {
		t.Fatalf("AcceptRepresentment: %v", err)
	}
	if rec.Status != domain.RepresentmentAcceptedByBank {
		t.Fatalf("Status = %q", rec.Status)
	}
	if rec.CreditReversedAt == nil {
		t.Fatalf("CreditReversedAt not recorded")
	}
	if f.ledger.ReversalCount("txn-1") != 1 {
		t.Fatalf("reversals = %d", f.ledger.ReversalCount("txn-1"))
	}
	txn, _ := f.repos.Transactions.GetByID(ctx, "txn-1")
	if txn.DisputeStatus != domain.DisputeStatusResolvedLost {
		t.Fatalf("DisputeStatus = %q", txn.DisputeStatus)
	}

	// A raced or double-clicked second accept fails before the ledger.
	if _, err := f.svc.AcceptRepresentment(ctx, bankAdmin, "txn-1"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("second accept: err = %v", err)
	}
	if f.ledger.ReversalCount("txn-1") != 1 {
		t.Fatalf("reversals after second accept = %d", f.ledger.ReversalCount("txn-1"))
	}
}

// flakyTransactionRepo fails transaction writes on demand while reads keep
// working.
type flakyTransactionRepo struct {
	ports.TransactionRepository
	failUpdates bool
}

func (r *flakyTransactionRepo) Update(ctx context.Context, row domain.Transaction) error {
	if r.failUpdates {
		return errors.New("storage offline")
	}
	return r.TransactionRepository.Update(ctx, row)
}

func TestAcceptRepresentmentSurvivesTransactionWriteFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", ""); err != nil {
		t.Fatalf("MerchantContested: %v", err)
	}
	flaky := &flakyTransactionRepo{TransactionRepository: f.repos.Transactions}
	f.svc.transactions = flaky
	flaky.failUpdates = true

	// The record turns terminal before the transaction row is written, so a
	// write failure must surface as operator work, not as a call error the
	// caller would retry into an invalid transition.
	rec, err := f.svc.AcceptRepresentment(ctx, bankAdmin, "txn-1")
	if err != nil {
		t.Fatalf("AcceptRepresentment: %v", err)
	}
	if rec.Status != domain.RepresentmentAcceptedByBank {
		t.Fatalf("Status = %q", rec.Status)
	}
	if f.ledger.ReversalCount("txn-1") != 1 {
		t.Fatalf("reversals = %d", f.ledger.ReversalCount("txn-1"))
	}
	failed, err := f.repos.Tasks.ListByKind(ctx, domain.TaskKindFailedAction, 10)
	if err != nil {
		t.Fatalf("ListByKind: %v", err)
	}
	var queued bool
	for _, task := range failed {
		if strings.Contains(task.Detail, "persist_dispute_status") {
			queued = true
		}
	}
	if !queued {
		t.Fatalf("stranded dispute status not queued, tasks = %+v", failed)
	}
}

func TestRejectRepresentmentKeepsCredit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", ""); err != nil {
		t.Fatalf("MerchantContested: %v", err)
	}
	rec, err := f.svc.RejectRepresentment(ctx, bankAdmin, "txn-1")
	if err != nil {
		t.Fatalf("RejectRepresentment: %v", err)
	}
	if rec.Status != domain.RepresentmentRejectedByBank {
		t.Fatalf("Status = %q", rec.Status)
	}
	if f.ledger.ReversalCount("txn-1") != 0 {
		t.Fatalf("credit reversed on rejection")
	}
	txn, _ := f.repos.Transactions.GetByID(ctx, "txn-1")
	if txn.DisputeStatus != domain.DisputeStatusResolvedWon {
		t.Fatalf("DisputeStatus = %q", txn.DisputeStatus)
	}
}

func TestRepresentmentTransitionsRequireBankAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", ""); err != nil {
		t.Fatalf("MerchantContested: %v", err)
	}
	if _, err := f.svc.AcceptRepresentment(ctx, analyst, "txn-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("analyst accept: err = %v", err)
	}
	if _, err := f.svc.RejectRepresentment(ctx, Actor{}, "txn-1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("anonymous reject: err = %v", err)
	}
}

func TestCustomerInfoFlowThroughPrearbitration(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", ""); err != nil {
		t.Fatalf("MerchantContested: %v", err)
	}
	rec, err := f.svc.RequestCustomerInfo(ctx, bankAdmin, "txn-1", "need proof of non-delivery")
	if err != nil {
		t.Fatalf("RequestCustomerInfo: %v", err)
	}
	if rec.Status != domain.RepresentmentAwaitingCustomerInfo {
		t.Fatalf("Status = %q", rec.Status)
	}

	// Unknown keys bounce before anything is stored.
	_, err = f.svc.SubmitCustomerEvidence(ctx, analyst, "txn-1", CustomerEvidenceInput{
		EvidenceItems: []domain.EvidenceItem{{Key: "sworn_statement", IsValid: true}},
	})
	if !errors.Is(err, domain.ErrUnknownDocumentKey) {
		t.Fatalf("unknown key: err = %v", err)
	}

	check, err := f.svc.SubmitCustomerEvidence(ctx, analyst, "txn-1", CustomerEvidenceInput{
		EvidenceItems: []domain.EvidenceItem{{Key: domain.DocBankStatement, IsValid: true}},
	})
	if err != nil {
		t.Fatalf("SubmitCustomerEvidence: %v", err)
	}
	if !check.Sufficient {
		t.Fatalf("verdict = %+v, want sufficient", check)
	}
	// Evidence submission alone never moves the state machine.
	rec, _ = f.svc.GetRepresentment(ctx, analyst, "txn-1")
	if rec.Status != domain.RepresentmentAwaitingCustomerInfo {
		t.Fatalf("Status after evidence = %q", rec.Status)
	}

	rec, err = f.svc.ProceedToPrearbitration(ctx, bankAdmin, "txn-1")
	if err != nil {
		t.Fatalf("ProceedToPrearbitration: %v", err)
	}
	if rec.Status != domain.RepresentmentPrearbitrationFiled {
		t.Fatalf("Status = %q", rec.Status)
	}
	if len(f.filer.Prearbitrations) != 1 {
		t.Fatalf("prearbitration filings = %d", len(f.filer.Prearbitrations))
	}
	txn, _ := f.repos.Transactions.GetByID(ctx, "txn-1")
	if txn.DisputeStatus != domain.DisputeStatusPrearbitrationPending {
		t.Fatalf("DisputeStatus = %q", txn.DisputeStatus)
	}
}

func TestSubmitCustomerEvidenceNamesRequiredState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", ""); err != nil {
		t.Fatalf("MerchantContested: %v", err)
	}
	// No info request has gone out, so evidence is refused with an error
	// that names the state the record has to be in.
	_, err := f.svc.SubmitCustomerEvidence(ctx, analyst, "txn-1", CustomerEvidenceInput{
		EvidenceItems: []domain.EvidenceItem{{Key: domain.DocBankStatement, IsValid: true}},
	})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), string(domain.RepresentmentAwaitingCustomerInfo)) {
		t.Fatalf("error does not name the required state: %v", err)
	}
}

func TestListAuditTrail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	entries, err := f.svc.ListAuditTrail(ctx, analyst, "txn-1", 0)
	if err != nil {
		t.Fatalf("ListAuditTrail: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("no audit entries after evaluation")
	}
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Action] = true
	}
	for _, want := range []string{"decision_recorded", "chargeback_filed", "temp_credit_issued"} {
		if !seen[want] {
			t.Fatalf("audit trail missing %q: %v", want, entries)
		}
	}
}

func (f *fixture) envelope(t *testing.T, eventType string, payload any) contracts.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClass(eventType),
		OccurredAt:       f.now,
		PartitionKeyPath: "data.transaction_id",
		PartitionKey:     "txn-1",
		SourceService:    "acquirer-gateway",
		TraceID:          uuid.NewString(),
		SchemaVersion:    "v1",
		Data:             data,
	}
}

func TestHandleCanonicalEventMerchantResponse(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	env := f.envelope(t, domain.EventMerchantResponseReceived, contracts.MerchantResponsePayload{
		TransactionID: "txn-1",
		ContestIntent: true,
		Reason:        "goods delivered",
	})
	if err := f.svc.HandleCanonicalEvent(ctx, env); err != nil {
		t.Fatalf("HandleCanonicalEvent: %v", err)
	}
	rec, _ := f.svc.GetRepresentment(ctx, analyst, "txn-1")
	if rec.Status != domain.RepresentmentPending {
		t.Fatalf("Status = %q", rec.Status)
	}

	// A redelivered envelope is acknowledged without reprocessing; the same
	// payload through a fresh event id is an invalid transition.
	if err := f.svc.HandleCanonicalEvent(ctx, env); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	fresh := env
	fresh.EventID = uuid.NewString()
	if err := f.svc.HandleCanonicalEvent(ctx, fresh); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("fresh duplicate contest: err = %v", err)
	}
}

func TestHandleCanonicalEventRejectsBadEnvelopes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	payload := contracts.MerchantResponsePayload{TransactionID: "txn-1", ContestIntent: true}

	missingTrace := f.envelope(t, domain.EventMerchantResponseReceived, payload)
	missingTrace.TraceID = ""
	if err := f.svc.HandleCanonicalEvent(ctx, missingTrace); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("missing trace id: err = %v", err)
	}

	wrongKey := f.envelope(t, domain.EventMerchantResponseReceived, payload)
	wrongKey.PartitionKey = "txn-other"
	if err := f.svc.HandleCanonicalEvent(ctx, wrongKey); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("partition key mismatch: err = %v", err)
	}

	wrongPath := f.envelope(t, domain.EventMerchantResponseReceived, payload)
	wrongPath.PartitionKeyPath = "data.customer_id"
	if err := f.svc.HandleCanonicalEvent(ctx, wrongPath); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("partition key path: err = %v", err)
	}

	outbound := f.envelope(t, domain.EventDecisionRecorded, contracts.DecisionRecordedPayload{TransactionID: "txn-1"})
	if err := f.svc.HandleCanonicalEvent(ctx, outbound); !errors.Is(err, domain.ErrUnsupportedEventType) {
		t.Fatalf("outbound type consumed: err = %v", err)
	}
}

func TestFlushOutboxPublishesAndMarksSent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	pending, err := f.repos.Outbox.ListPending(ctx, 100)
	if err != nil || len(pending) == 0 {
		t.Fatalf("pending = %d, err = %v", len(pending), err)
	}
	for _, rec := range pending {
		if rec.Envelope.PartitionKey != "txn-1" {
			t.Fatalf("partition key = %q", rec.Envelope.PartitionKey)
		}
		if rec.Envelope.PartitionKeyPath != "data.transaction_id" {
			t.Fatalf("partition key path = %q", rec.Envelope.PartitionKeyPath)
		}
	}

	if err := f.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("FlushOutbox: %v", err)
	}
	if got := len(f.domainPub.Events()); got != len(pending) {
		t.Fatalf("published = %d, want %d", got, len(pending))
	}
	left, _ := f.repos.Outbox.ListPending(ctx, 100)
	if len(left) != 0 {
		t.Fatalf("still pending after flush: %d", len(left))
	}
	// A second flush finds nothing to resend.
	if err := f.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("second FlushOutbox: %v", err)
	}
	if got := len(f.domainPub.Events()); got != len(pending) {
		t.Fatalf("republished after drain: %d", got)
	}
}

func TestFlushOutboxRoutesFailuresToDLQ(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	f.domainPub.FailNext(true)
	if err := f.svc.FlushOutbox(ctx); err == nil {
		t.Fatalf("flush succeeded with a failing publisher")
	}
	if len(f.dlq.Records()) != 1 {
		t.Fatalf("dlq records = %d", len(f.dlq.Records()))
	}
	// The record stays pending for the next flush.
	pending, _ := f.repos.Outbox.ListPending(ctx, 100)
	if len(pending) == 0 {
		t.Fatalf("failed record marked sent")
	}

	f.domainPub.FailNext(false)
	if err := f.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("recovery flush: %v", err)
	}
	left, _ := f.repos.Outbox.ListPending(ctx, 100)
	if len(left) != 0 {
		t.Fatalf("still pending after recovery: %d", len(left))
	}
}

func TestFlushOutboxSendsRepresentmentUpdatesToAnalytics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fileChargeback(t)
	ctx := context.Background()

	if err := f.svc.MerchantContested(ctx, "txn-1", "goods delivered", ""); err != nil {
		t.Fatalf("MerchantContested: %v", err)
	}
	if err := f.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("FlushOutbox: %v", err)
	}
	var found bool
	for _, e := range f.analytics.Events() {
		if e.EventType == domain.EventRepresentmentUpdated {
			found = true
		}
	}
	if !found {
		t.Fatalf("representment update missing from analytics stream")
	}
	// Analytics-only events never reach the domain stream.
	for _, e := range f.domainPub.Events() {
		if e.EventType == domain.EventRepresentmentUpdated {
			t.Fatalf("analytics-only event on the domain stream")
		}
	}
}
