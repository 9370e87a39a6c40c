package domain

import (
	"strings"
	"time"
)

// Closed code sets used by fact derivation. Membership is exact-match; codes
// outside a set simply do not grant the corresponding classification.
var securedIndicationCodes = map[string]bool{
	"OTP_VERIFIED":      true,
	"3DS_AUTHENTICATED": true,
	"3DS2_FRICTIONLESS": true,
	"PIN_VERIFIED":      true,
}

var unsecuredIndicationCodes = map[string]bool{
	"":              true,
	"NONE":          true,
	"NOT_AUTHED":    true,
	"3DS_ATTEMPTED": true,
}

// ISO 8583 field 22 style point-of-sale entry modes.
var magstripeEntryModes = map[string]bool{
	"01": true, // manual key entry
	"02": true, // magstripe read
	"80": true, // chip fallback to magstripe
	"90": true, // full magstripe read
}

var chipEntryModes = map[string]bool{
	"05": true,
	"95": true,
}

var contactlessEntryModes = map[string]bool{
	"07": true,
	"91": true,
}

// Merchant category codes with chargeback rates high enough that temporary
// credit is withheld pending network outcome.
var restrictedMCCs = map[string]bool{
	"4829": true, // money transfer
	"5816": true, // digital goods: games
	"5967": true, // direct marketing: inbound teleservices
	"6051": true, // quasi cash
	"6540": true, // POI funding
	"7995": true, // betting and gambling
}

// Wallet providers whose secured transactions indicate the cardholder was
// present at authorization time.
var blockedSecuredWalletTypes = map[string]bool{
	"APPLE_PAY":   true,
	"GOOGLE_PAY":  true,
	"SAMSUNG_PAY": true,
}

// Facts are the computed inputs the policy table evaluates. Derivation is a
// pure function of the transaction snapshot and the evaluation clock.
type Facts struct {
	BaseAmountUSD        *float64 `json:"base_amount_usd"`
	RemainingAmountUSD   float64  `json:"remaining_amount_usd"`
	DaysSinceTransaction int      `json:"days_since_transaction"`
	DaysSinceSettlement  *int     `json:"days_since_settlement"`
	RefundReceived       bool     `json:"refund_received"`
	Settled              bool     `json:"settled"`
	IsSecuredOTP         bool     `json:"is_secured_otp"`
	IsUnsecured          bool     `json:"is_unsecured"`
	IsMagstripe          bool     `json:"is_magstripe"`
	IsChip               bool     `json:"is_chip"`
	IsContactless        bool     `json:"is_contactless"`
	IsRestrictedMCC      bool     `json:"is_restricted_mcc"`
	IsWallet             bool     `json:"is_wallet"`
	WalletType           string   `json:"wallet_type,omitempty"`
	IsBlockedWalletType  bool     `json:"is_blocked_wallet_type"`
	IsRefundReliable     bool     `json:"is_refund_reliable_merchant"`
}

// DeriveFacts normalizes a transaction into the facts the rule table needs.
//
// USD normalization prefers the transaction currency when it is already USD,
// falls back to the local-currency amount when that is USD, and otherwise
// leaves BaseAmountUSD nil. Rules that need a USD amount must treat nil as
// "cannot apply", never as zero.
func DeriveFacts(txn Transaction, now time.Time) Facts {
	f := Facts{
		RefundReceived: txn.RefundReceived,
		Settled:        txn.Settled,
		IsWallet:       txn.IsWallet,
		WalletType:     strings.ToUpper(strings.TrimSpace(txn.WalletType)),
	}

	currency := strings.ToUpper(strings.TrimSpace(txn.Currency))
	localCurrency := strings.ToUpper(strings.TrimSpace(txn.LocalCurrency))
	switch {
	case currency == "USD":
		amt := txn.Amount
		f.BaseAmountUSD = &amt
	case localCurrency == "USD":
		amt := txn.LocalAmount
		f.BaseAmountUSD = &amt
	}

	if f.BaseAmountUSD != nil {
		f.RemainingAmountUSD = *f.BaseAmountUSD
		if txn.RefundReceived {
			f.RemainingAmountUSD = *f.BaseAmountUSD - txn.RefundAmount
			if f.RemainingAmountUSD < 0 {
				f.RemainingAmountUSD = 0
			}
		}
	}

	f.DaysSinceTransaction = daysBetween(txn.OccurredAt, now)
	if txn.Settled && txn.SettledAt != nil {
		d := daysBetween(*txn.SettledAt, now)
		f.DaysSinceSettlement = &d
	}

	indication := strings.ToUpper(strings.TrimSpace(txn.SecuredIndication))
	f.IsSecuredOTP = securedIndicationCodes[indication]
	f.IsUnsecured = unsecuredIndicationCodes[indication]

	entryMode := strings.TrimSpace(txn.POSEntryMode)
	f.IsMagstripe = magstripeEntryModes[entryMode]
	f.IsChip = chipEntryModes[entryMode]
	f.IsContactless = contactlessEntryModes[entryMode]

	f.IsRestrictedMCC = restrictedMCCs[strings.TrimSpace(txn.MerchantCategory)]
	f.IsBlockedWalletType = txn.IsWallet && blockedSecuredWalletTypes[f.WalletType]
	f.IsRefundReliable = IsRefundReliableMerchant(txn.MerchantName)
	return f
}

func daysBetween(from, to time.Time) int {
	d := int(to.Sub(from).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
