package models

// DocTypeInvestigation tags private investigation halves for rich queries.
const DocTypeInvestigation = "investigation"

// InvestigationStatus is the lifecycle state of an investigation.
type InvestigationStatus string

const (
	InvestigationActive   InvestigationStatus = "ACTIVE"
	InvestigationComplete InvestigationStatus = "COMPLETE"
)

// ParticipantStatus is the state of one organization inside an investigation.
type ParticipantStatus string

const (
	ParticipantActive   ParticipantStatus = "ACTIVE"
	ParticipantPending  ParticipantStatus = "PENDING"
	ParticipantApproved ParticipantStatus = "APPROVED"
	ParticipantRejected ParticipantStatus = "REJECTED"
)

// InvestigationPublic is the shared record of an investigation. Organization
// identities are encrypted under secret1 and serials under secret2.
type InvestigationPublic struct {
	ID                string                       `json:"id"`
	Creator           string                       `json:"creator"`
	Entities          []string                     `json:"entities"`
	ParticipatingOrgs map[string]*ParticipatingOrg `json:"participatingOrgs"`
	Status            InvestigationStatus          `json:"status"`
	Message           string                       `json:"message"`
	Type              string                       `json:"type"`
	Timestamp         string                       `json:"timestamp"`
	TimestampClose    string                       `json:"timestampClose,omitempty"`
}

// ParticipatingOrg tracks one member of an investigation.
type ParticipatingOrg struct {
	OrgIDEnc             string            `json:"orgIdEnc"`
	Status               ParticipantStatus `json:"status"`
	SerialNumberCustomer []string          `json:"serialNumberCustomer"`
	Timestamp            string            `json:"timestamp"`
}

// InvestigationPrivate is the key material one participant holds for an
// investigation. It lives only in that participant's private partition.
type InvestigationPrivate struct {
	ID      string `json:"id"`
	DocType string `json:"docType"`
	Secret1 string `json:"secret1"`
	Secret2 string `json:"secret2"`
	IV      string `json:"iv"`
	Type    string `json:"type"`
}
