package models

// DocTypeAsset tags asset records so they can be selected by a rich query.
const DocTypeAsset = "asset"

// Envelope actions recorded on the public ledger.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
)

// QualityDocument references an off-chain quality document by hash.
type QualityDocument struct {
	DocumentHash string `json:"documentHash"`
	DocumentURI  string `json:"documentUri"`
}

// ChildSerial is a component serial reported with an asset request.
type ChildSerial struct {
	SerialNumberCustomer string `json:"serialNumberCustomer"`
	Flagged              bool   `json:"flagged"`
}

// AssetFields are the descriptor fields an organization supplies for a part.
type AssetFields struct {
	Manufacturer                      string            `json:"manufacturer"`
	ProductionCountryCodeManufacturer string            `json:"productionCountryCodeManufacturer"`
	PartNameManufacturer              string            `json:"partNameManufacturer"`
	PartNumberManufacturer            string            `json:"partNumberManufacturer"`
	PartNumberCustomer                string            `json:"partNumberCustomer"`
	SerialNumberManufacturer          string            `json:"serialNumberManufacturer"`
	SerialNumberCustomer              string            `json:"serialNumberCustomer"`
	SerialNumberType                  string            `json:"serialNumberType"`
	QualityStatus                     string            `json:"qualityStatus"`
	Status                            string            `json:"status"`
	ProductionDateGmt                 string            `json:"productionDateGmt"`
	ManufacturerPlant                 string            `json:"manufacturerPlant"`
	ManufacturerLine                  string            `json:"manufacturerLine"`
	QualityDocuments                  []QualityDocument `json:"qualityDocuments,omitempty"`
	CustomFields                      map[string]any    `json:"customFields,omitempty"`
	ComponentsSerialNumbers           []string          `json:"componentsSerialNumbers,omitempty"`
}

// Asset is a part descriptor as held in one organization's private partition.
type Asset struct {
	AssetFields
	DocType                  string        `json:"docType"`
	SerialNumberCustomerHash string        `json:"serialNumberCustomerHash"`
	OwnerKey                 string        `json:"ownerKey"`
	OwnerOrgID               string        `json:"ownerOrgId"`
	SharedHash               string        `json:"sharedHash"`
	ChildSerialNumbers       []ChildSerial `json:"childSerialNumbers,omitempty"`
}

// AssetEnvelope is the public transaction record anchoring an asset write.
// It is keyed by the identity hash of the customer serial.
type AssetEnvelope struct {
	Action       string `json:"action"`
	Timestamp    string `json:"timestamp"`
	FullHash     string `json:"fullHash"`
	SharedHash   string `json:"sharedHash"`
	IdentityHash string `json:"identityHash"`
	TxID         string `json:"txId"`
	OrgID        string `json:"orgId"`
}

// AssetEnvelopeVersion is one historical value of an asset envelope.
type AssetEnvelopeVersion struct {
	TxID      string         `json:"txId"`
	Timestamp string         `json:"timestamp"`
	IsDelete  bool           `json:"isDelete"`
	Value     *AssetEnvelope `json:"value,omitempty"`
}
