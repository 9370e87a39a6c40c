package domain

import "strings"

// MerchantRefundPolicy marks merchants that reliably refund on direct request,
// making a card-network filing needless inside their refund window.
type MerchantRefundPolicy struct {
	Label            string
	NameContains     []string
	RefundWindowDays int
}

// refundReliableMerchants is deliberately a table, not scattered string
// matches, so the heuristic influences exactly one rule and can be replaced
// by configuration later. Substring matching on merchant descriptors is a
// low-confidence identification; see IsRefundReliableMerchant.
var refundReliableMerchants = []MerchantRefundPolicy{
	{Label: "facebook_meta", NameContains: []string{"facebook", "meta"}, RefundWindowDays: 7},
}

// IsRefundReliableMerchant reports whether the merchant descriptor matches a
// refund-reliability entry. This is a heuristic on free-text merchant names,
// not authoritative merchant identification.
func IsRefundReliableMerchant(merchantName string) bool {
	_, ok := RefundPolicyForMerchant(merchantName)
	return ok
}

func RefundPolicyForMerchant(merchantName string) (MerchantRefundPolicy, bool) {
	name := strings.ToLower(strings.TrimSpace(merchantName))
	if name == "" {
		return MerchantRefundPolicy{}, false
	}
	for _, policy := range refundReliableMerchants {
		for _, needle := range policy.NameContains {
			if strings.Contains(name, needle) {
				return policy, true
			}
		}
	}
	return MerchantRefundPolicy{}, false
}
