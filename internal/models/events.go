package models

// Event names emitted on the ledger.
const (
	EventRequest               = "RequestEvent"
	EventExchange              = "ExchangeEvent"
	EventRequestInvestigation  = "RequestInvestigationEvent"
	EventExchangeInvestigation = "ExchangeInvestigationEvent"
)

// AssetEvent is the payload of RequestEvent and ExchangeEvent.
type AssetEvent struct {
	Key   string `json:"key"`
	OrgID string `json:"orgId"`
}

// InvestigationEvent is the payload of the investigation scoped asset events.
// Key and OrgIDEnc are ciphertexts and are opaque without the investigation keys.
type InvestigationEvent struct {
	InvestigationID string `json:"investigationId"`
	Key             string `json:"key"`
	OrgIDEnc        string `json:"orgIdEnc"`
	OrgID           string `json:"orgId"`
}
