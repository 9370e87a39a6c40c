package domain

import (
	"sort"
	"strings"
)

// Fixed vocabulary of evidence document keys.
const (
	DocInvoice               = "invoice"
	DocTrackingProof         = "tracking_proof"
	DocBankStatement         = "bank_statement"
	DocProductPhotos         = "product_photos"
	DocMerchantCommunication = "merchant_communication"
	DocCancellationProof     = "cancellation_proof"
	DocRefundPromise         = "refund_promise"
	DocIdentityDeclaration   = "identity_declaration"
)

var knownDocumentKeys = map[string]bool{
	DocInvoice:               true,
	DocTrackingProof:         true,
	DocBankStatement:         true,
	DocProductPhotos:         true,
	DocMerchantCommunication: true,
	DocCancellationProof:     true,
	DocRefundPromise:         true,
	DocIdentityDeclaration:   true,
}

// requiredDocuments maps each dispute reason to the minimal document set a
// filing needs. A reason absent from this table is treated as insufficient,
// which forces manual review rather than auto-passing an under-evidenced claim.
var requiredDocuments = map[string][]string{
	ReasonNotReceived:           {DocInvoice, DocTrackingProof},
	ReasonQualityIssue:          {DocInvoice, DocProductPhotos, DocMerchantCommunication},
	ReasonDuplicate:             {DocBankStatement},
	ReasonIncorrectAmount:       {DocInvoice, DocBankStatement},
	ReasonUnauthorized:          {DocIdentityDeclaration},
	ReasonSubscriptionCancelled: {DocCancellationProof},
}

// EvidenceItem is a validator-produced verdict on one submitted document.
type EvidenceItem struct {
	Key             string `json:"key"`
	IsValid         bool   `json:"is_valid"`
	ReasonIfInvalid string `json:"reason_if_invalid,omitempty"`
}

// EvidenceCheck is the sufficiency verdict for a reason code.
type EvidenceCheck struct {
	Sufficient bool     `json:"sufficient"`
	Missing    []string `json:"missing,omitempty"`
}

// IsKnownDocumentKey validates submitted keys against the fixed vocabulary.
func IsKnownDocumentKey(key string) bool {
	return knownDocumentKeys[strings.ToLower(strings.TrimSpace(key))]
}

// CheckEvidence validates submitted items against the per-reason requirement
// table. An item only counts when its validator marked it valid; invalid and
// absent documents accumulate in Missing, sorted for determinism.
func CheckEvidence(reasonCode string, items []EvidenceItem) EvidenceCheck {
	required, known := requiredDocuments[NormalizeReasonCode(reasonCode)]
	if !known {
		return EvidenceCheck{Sufficient: false, Missing: []string{"unrecognized_reason_code"}}
	}

	valid := map[string]bool{}
	for _, item := range items {
		if item.IsValid {
			valid[strings.ToLower(strings.TrimSpace(item.Key))] = true
		}
	}

	missing := make([]string, 0, len(required))
	for _, key := range required {
		if !valid[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		return EvidenceCheck{Sufficient: false, Missing: missing}
	}
	return EvidenceCheck{Sufficient: true}
}

// HasValidEvidence reports whether any of the given keys was submitted and
// validated, regardless of the reason-code requirement table.
func HasValidEvidence(items []EvidenceItem, keys ...string) bool {
	for _, item := range items {
		if !item.IsValid {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(item.Key))
		for _, want := range keys {
			if k == want {
				return true
			}
		}
	}
	return false
}
