// Package asset stores part descriptors in the owner's private partition,
// anchors every write with a public envelope and moves descriptors between
// organizations with an ACTIVE relationship.
package asset

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/asaskevich/govalidator"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/digest"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/store"
)

const (
	maxFieldLength  = "100"
	maxSerialLength = "500"
)

// ValidateFields checks the descriptor fields before any state is read.
func ValidateFields(f models.AssetFields) error {
	if f.SerialNumberCustomer == "" {
		return fault.Validation("serialNumberCustomer is required")
	}

	serials := map[string]string{
		"serialNumberCustomer":     f.SerialNumberCustomer,
		"serialNumberManufacturer": f.SerialNumberManufacturer,
	}
	for name, v := range serials {
		if !govalidator.StringLength(v, "0", maxSerialLength) {
			return fault.Validation("%s must be at most %s characters", name, maxSerialLength)
		}
	}

	fields := map[string]string{
		"manufacturer":                      f.Manufacturer,
		"productionCountryCodeManufacturer": f.ProductionCountryCodeManufacturer,
		"partNameManufacturer":              f.PartNameManufacturer,
		"partNumberManufacturer":            f.PartNumberManufacturer,
		"partNumberCustomer":                f.PartNumberCustomer,
		"serialNumberType":                  f.SerialNumberType,
		"qualityStatus":                     f.QualityStatus,
		"status":                            f.Status,
		"productionDateGmt":                 f.ProductionDateGmt,
		"manufacturerPlant":                 f.ManufacturerPlant,
		"manufacturerLine":                  f.ManufacturerLine,
	}
	for name, v := range fields {
		if !govalidator.StringLength(v, "0", maxFieldLength) {
			return fault.Validation("%s must be at most %s characters", name, maxFieldLength)
		}
	}

	if slices.Contains(f.ComponentsSerialNumbers, f.SerialNumberCustomer) {
		return fault.Validation("serialNumberCustomer %s is listed in its own componentsSerialNumbers", f.SerialNumberCustomer)
	}

	return nil
}

// Create stores a new asset for the caller. It fails with a conflict when the
// caller already holds an asset with the same customer serial.
func Create(ctx context.Context, l store.Ledger, tx store.Tx, f models.AssetFields) (*models.Asset, error) {
	if err := ValidateFields(f); err != nil {
		return nil, err
	}

	key := digest.OwnerKey(f.SerialNumberCustomer, tx.Caller)
	found, err := exists(ctx, l, tx.Caller, key)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fault.Conflict("asset %s is already stored", f.SerialNumberCustomer)
	}

	return put(ctx, l, tx, f, models.ActionCreate)
}

// Update replaces an asset the caller already holds and records an UPDATE
// envelope.
func Update(ctx context.Context, l store.Ledger, tx store.Tx, f models.AssetFields) (*models.Asset, error) {
	if err := ValidateFields(f); err != nil {
		return nil, err
	}

	key := digest.OwnerKey(f.SerialNumberCustomer, tx.Caller)
	found, err := exists(ctx, l, tx.Caller, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fault.NotFound("asset %s not found", f.SerialNumberCustomer)
	}

	return put(ctx, l, tx, f, models.ActionUpdate)
}

// newAsset derives the stored form of f for owner. createdBy becomes
// ownerOrgId.
func newAsset(f models.AssetFields, owner, createdBy string) (*models.Asset, error) {
	shared, err := digest.SharedHash(f)
	if err != nil {
		return nil, fault.Internal(err, "failed to compute shared hash of %s", f.SerialNumberCustomer)
	}

	return &models.Asset{
		AssetFields:              f,
		DocType:                  models.DocTypeAsset,
		SerialNumberCustomerHash: digest.IdentityHash(f.SerialNumberCustomer),
		OwnerKey:                 digest.OwnerKey(f.SerialNumberCustomer, owner),
		OwnerOrgID:               createdBy,
		SharedHash:               shared,
	}, nil
}

// put writes the private record and the public envelope anchoring it.
func put(ctx context.Context, l store.Ledger, tx store.Tx, f models.AssetFields, action string) (*models.Asset, error) {
	a, err := newAsset(f, tx.Caller, tx.Caller)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(a)
	if err != nil {
		return nil, fault.Internal(err, "failed to encode asset %s", f.SerialNumberCustomer)
	}
	if err := l.PutPrivate(ctx, store.Partition(tx.Caller), a.OwnerKey, b); err != nil {
		return nil, fault.Internal(err, "failed to store asset %s", f.SerialNumberCustomer)
	}

	env := models.AssetEnvelope{
		Action:       action,
		Timestamp:    tx.Stamp(),
		FullHash:     digest.FullHash(b),
		SharedHash:   a.SharedHash,
		IdentityHash: a.SerialNumberCustomerHash,
		TxID:         tx.ID,
		OrgID:        tx.Caller,
	}
	if err := store.PutPublicJSON(ctx, l, a.SerialNumberCustomerHash, env); err != nil {
		return nil, err
	}

	log.Debug().
		Str("org", tx.Caller).
		Str("action", action).
		Str("shared_hash", a.SharedHash).
		Msg("Stored asset")

	return a, nil
}

func exists(ctx context.Context, s store.PrivateStore, org, key string) (bool, error) {
	b, err := s.GetPrivate(ctx, store.Partition(org), key)
	if err != nil {
		return false, fault.Internal(err, "failed to read asset in %s", store.Partition(org))
	}
	return len(b) > 0, nil
}
