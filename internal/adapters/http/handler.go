package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/domain"
)

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	decision, err := h.service.Evaluate(r.Context(), actor, application.EvaluateInput{
		TransactionID: strings.TrimSpace(req.TransactionID),
		DisputeID:     strings.TrimSpace(req.DisputeID),
		EvidenceItems: mapEvidenceItems(req.EvidenceItems),
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "", map[string]any{
		"decision_id":          decision.DecisionID,
		"transaction_id":       decision.TransactionID,
		"decision_kind":        decision.Kind,
		"policy_code":          decision.PolicyCode,
		"reason_summary":       decision.ReasonSummary,
		"flags":                decision.Flags,
		"next_actions":         decision.NextActions,
		"missing_documents":    decision.MissingDocuments,
		"base_amount_usd":      decision.BaseAmountUSD,
		"remaining_amount_usd": decision.RemainingAmountUSD,
		"input_fingerprint":    decision.InputFingerprint,
		"audit":                decision.Audit,
		"created_at":           decision.CreatedAt,
	})
}

func (h *Handler) listDecisions(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	decisions, err := h.service.ListDecisions(r.Context(), actor, chi.URLParam(r, "transaction_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"decisions": decisions, "count": len(decisions)})
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.ListAuditTrail(r.Context(), actor, chi.URLParam(r, "transaction_id"), limit)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"entries": entries, "count": len(entries)})
}

func (h *Handler) getRepresentment(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	rec, err := h.service.GetRepresentment(r.Context(), actor, chi.URLParam(r, "transaction_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", representmentView(rec))
}

func (h *Handler) submitCustomerEvidence(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.CustomerEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	check, err := h.service.SubmitCustomerEvidence(r.Context(), actor, chi.URLParam(r, "transaction_id"), application.CustomerEvidenceInput{
		EvidenceItems: mapEvidenceItems(req.EvidenceItems),
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusAccepted, "", map[string]any{"sufficient": check.Sufficient, "missing": check.Missing})
}

// merchantResponse is the synchronous twin of the consumed
// merchant.response.received event, for acquirers that integrate over HTTP.
func (h *Handler) merchantResponse(w http.ResponseWriter, r *http.Request) {
	var req contracts.MerchantResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	transactionID := chi.URLParam(r, "transaction_id")
	var err error
	if req.ContestIntent {
		err = h.service.MerchantContested(r.Context(), transactionID, strings.TrimSpace(req.Reason), strings.TrimSpace(req.EvidenceRef))
	} else {
		err = h.service.MerchantAccepted(r.Context(), transactionID)
	}
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "merchant response recorded", nil)
}

func (h *Handler) acceptRepresentment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.AcceptRepresentment)
}

func (h *Handler) rejectRepresentment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.RejectRepresentment)
}

func (h *Handler) proceedToPrearbitration(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ProceedToPrearbitration)
}

func (h *Handler) requestCustomerInfo(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.TransitionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	rec, err := h.service.RequestCustomerInfo(r.Context(), actor, chi.URLParam(r, "transaction_id"), strings.TrimSpace(req.Notes))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", representmentView(rec))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor application.Actor, transactionID string) (domain.RepresentmentRecord, error)) {
	actor := actorFromContext(r.Context())
	rec, err := op(r.Context(), actor, chi.URLParam(r, "transaction_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", representmentView(rec))
}

func representmentView(rec domain.RepresentmentRecord) map[string]any {
	return map[string]any{
		"transaction_id":        rec.TransactionID,
		"status":                rec.Status,
		"merchant_reason":       rec.MerchantReason,
		"merchant_evidence_ref": rec.MerchantEvidenceRef,
		"needs_attention":       rec.NeedsAttention,
		"credit_reversed_at":    rec.CreditReversedAt,
		"created_at":            rec.CreatedAt,
		"updated_at":            rec.UpdatedAt,
	}
}

func mapEvidenceItems(in []contracts.EvidenceItem) []domain.EvidenceItem {
	out := make([]domain.EvidenceItem, 0, len(in))
	for _, item := range in {
		out = append(out, domain.EvidenceItem{
			Key:             strings.ToLower(strings.TrimSpace(item.Key)),
			IsValid:         item.IsValid,
			ReasonIfInvalid: strings.TrimSpace(item.ReasonIfInvalid),
		})
	}
	return out
}
