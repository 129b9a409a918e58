// Package digest derives the content addresses and integrity digests of parts.
//
// IdentityHash and OwnerKey produce base64 encoded SHA-2 digests. SharedHash is
// a deliberately weak MD5 digest used only to check that two organizations
// hold the same view of a declared field subset; it offers no tamper
// resistance.
package digest

import (
	"bytes"
	"crypto/md5" //nolint:gosec // weak digest is intended, see package doc
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/wolfeidau/partchain/internal/models"
)

// IdentityHash returns the base64 SHA-512 of s.
func IdentityHash(s string) string {
	sum := sha512.Sum512([]byte(s))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// OwnerKey returns the owner scoped private address of a serial. The same
// serial held by two organizations never maps to the same key.
func OwnerKey(serial, orgID string) string {
	input := []byte(serial + orgID)
	s256 := sha256.Sum256(input)
	s512 := sha512.Sum512(input)

	joined := base64.StdEncoding.EncodeToString(s256[:]) + base64.StdEncoding.EncodeToString(s512[:])

	// the second round hashes the JSON string literal, quotes included
	quoted, _ := json.Marshal(joined)
	sum := sha512.Sum512(quoted)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// FullHash returns the base64 SHA-512 of a serialized record.
func FullHash(b []byte) string {
	sum := sha512.Sum512(b)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type sharedProjection struct {
	Manufacturer                      string                   `json:"manufacturer"`
	ProductionCountryCodeManufacturer string                   `json:"productionCountryCodeManufacturer"`
	PartNameManufacturer              string                   `json:"partNameManufacturer"`
	PartNumberManufacturer            string                   `json:"partNumberManufacturer"`
	PartNumberCustomer                string                   `json:"partNumberCustomer"`
	SerialNumberType                  string                   `json:"serialNumberType"`
	SerialNumberManufacturer          string                   `json:"serialNumberManufacturer"`
	SerialNumberCustomer              string                   `json:"serialNumberCustomer"`
	QualityStatus                     string                   `json:"qualityStatus"`
	Status                            string                   `json:"status"`
	ProductionDateGmt                 string                   `json:"productionDateGmt"`
	QualityDocuments                  []models.QualityDocument `json:"qualityDocuments"`
	ManufacturerPlant                 string                   `json:"manufacturerPlant"`
	ManufacturerLine                  string                   `json:"manufacturerLine"`
	CustomFields                      map[string]any           `json:"customFields"`
}

// SharedHash returns the hex MD5 of the canonical JSON of the shared field
// projection of f. Components and every derived field are excluded.
func SharedHash(f models.AssetFields) (string, error) {
	p := sharedProjection{
		Manufacturer:                      f.Manufacturer,
		ProductionCountryCodeManufacturer: f.ProductionCountryCodeManufacturer,
		PartNameManufacturer:              f.PartNameManufacturer,
		PartNumberManufacturer:            f.PartNumberManufacturer,
		PartNumberCustomer:                f.PartNumberCustomer,
		SerialNumberType:                  f.SerialNumberType,
		SerialNumberManufacturer:          f.SerialNumberManufacturer,
		SerialNumberCustomer:              f.SerialNumberCustomer,
		QualityStatus:                     f.QualityStatus,
		Status:                            f.Status,
		ProductionDateGmt:                 f.ProductionDateGmt,
		QualityDocuments:                  f.QualityDocuments,
		ManufacturerPlant:                 f.ManufacturerPlant,
		ManufacturerLine:                  f.ManufacturerLine,
		CustomFields:                      f.CustomFields,
	}

	canon, err := Canonical(p)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize shared fields: %w", err)
	}

	sum := md5.Sum(canon) //nolint:gosec
	return hex.EncodeToString(sum[:]), nil
}

// ValidateShared reports whether the shared hash of f equals stored.
func ValidateShared(stored string, f models.AssetFields) (bool, error) {
	computed, err := SharedHash(f)
	if err != nil {
		return false, err
	}
	return computed == stored, nil
}

// Canonical encodes v as JSON with object keys sorted at every level and
// without insignificant whitespace. Numbers keep their literal form.
func Canonical(v any) ([]byte, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func toGeneric(v any) (any, error) {
	var (
		b   []byte
		err error
	)
	switch raw := v.(type) {
	case []byte:
		b = raw
	case json.RawMessage:
		b = raw
	default:
		b, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
