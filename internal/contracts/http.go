package contracts

type EvidenceItem struct {
	Key             string `json:"key"`
	IsValid         bool   `json:"is_valid"`
	ReasonIfInvalid string `json:"reason_if_invalid,omitempty"`
}

type EvaluateRequest struct {
	TransactionID string         `json:"transaction_id"`
	DisputeID     string         `json:"dispute_id"`
	EvidenceItems []EvidenceItem `json:"evidence_items"`
}

type TransitionRequest struct {
	Notes string `json:"notes,omitempty"`
}

type MerchantResponseRequest struct {
	ContestIntent bool   `json:"contest_intent"`
	Reason        string `json:"reason,omitempty"`
	EvidenceRef   string `json:"evidence_ref,omitempty"`
}

type CustomerEvidenceRequest struct {
	EvidenceItems []EvidenceItem `json:"evidence_items"`
	Notes         string         `json:"notes,omitempty"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}
