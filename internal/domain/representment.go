package domain

import "time"

// RepresentmentStatus models the post-filing lifecycle. Status only moves
// through ValidateRepresentmentTransition; free-form writes are not allowed.
type RepresentmentStatus string

const (
	RepresentmentNone                 RepresentmentStatus = "no_representment"
	RepresentmentPending              RepresentmentStatus = "pending"
	RepresentmentAcceptedByBank       RepresentmentStatus = "accepted_by_bank"
	RepresentmentRejectedByBank       RepresentmentStatus = "rejected_by_bank"
	RepresentmentAwaitingCustomerInfo RepresentmentStatus = "awaiting_customer_info"
	RepresentmentPrearbitrationFiled  RepresentmentStatus = "prearbitration_filed"
)

// representmentTransitions is the validated edge set. Terminal states have
// no outgoing edges. no_representment -> pending additionally requires the
// transaction's chargeback to have been filed, enforced by the caller.
var representmentTransitions = map[RepresentmentStatus][]RepresentmentStatus{
	RepresentmentNone:                 {RepresentmentPending},
	RepresentmentPending:              {RepresentmentAcceptedByBank, RepresentmentRejectedByBank, RepresentmentAwaitingCustomerInfo},
	RepresentmentAwaitingCustomerInfo: {RepresentmentPrearbitrationFiled, RepresentmentAcceptedByBank},
	RepresentmentAcceptedByBank:       nil,
	RepresentmentRejectedByBank:       nil,
	RepresentmentPrearbitrationFiled:  nil,
}

// ValidateRepresentmentTransition rejects, never silently ignores, an edge
// outside the table. Repeating the current status is also rejected so a
// double-clicked "accept" surfaces as an error instead of a hidden no-op.
func ValidateRepresentmentTransition(from, to RepresentmentStatus) error {
	for _, allowed := range representmentTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return TransitionError(from, to)
}

// IsTerminalRepresentmentStatus reports whether no further transitions exist.
func IsTerminalRepresentmentStatus(s RepresentmentStatus) bool {
	return len(representmentTransitions[s]) == 0
}

// RepresentmentRecord exists once per transaction that reached
// chargeback-filed status; it is created lazily at filing time.
type RepresentmentRecord struct {
	TransactionID       string              `json:"transaction_id"`
	Status              RepresentmentStatus `json:"status"`
	MerchantReason      string              `json:"merchant_reason,omitempty"`
	MerchantEvidenceRef string              `json:"merchant_evidence_ref,omitempty"`
	NeedsAttention      bool                `json:"needs_attention"`
	CreditReversedAt    *time.Time          `json:"credit_reversed_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}
