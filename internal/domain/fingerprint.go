package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// fingerprintPayload is the canonical, fixed-shape encoding hashed for
// idempotency. Surrogate IDs and wall-clock timestamps stay out; the derived
// day counts are decision inputs and belong in. Evidence verdicts are sorted
// so submission order cannot change the hash.
type fingerprintPayload struct {
	Facts        Facts         `json:"facts"`
	ReasonCode   string        `json:"reason_code"`
	CustomReason string        `json:"custom_reason"`
	Evidence     EvidenceCheck `json:"evidence"`
	ValidKeys    []string      `json:"valid_keys"`
	Version      string        `json:"version"`
}

// FingerprintInputs produces the content-addressed hash that keys a Decision.
// Identical logical inputs always hash identically, independent of call order
// or incidental metadata.
func FingerprintInputs(facts Facts, reasonCode, customReason string, items []EvidenceItem, check EvidenceCheck) string {
	validKeys := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsValid {
			validKeys = append(validKeys, strings.ToLower(strings.TrimSpace(item.Key)))
		}
	}
	sort.Strings(validKeys)

	payload := fingerprintPayload{
		Facts:        facts,
		ReasonCode:   NormalizeReasonCode(reasonCode),
		CustomReason: strings.TrimSpace(customReason),
		Evidence:     check,
		ValidKeys:    validKeys,
		Version:      PolicyEngineVersion,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		// A fixed-shape struct of scalars and string slices cannot fail to
		// encode; guard anyway so callers never key on an empty hash.
		raw = []byte(payload.ReasonCode + payload.CustomReason)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
