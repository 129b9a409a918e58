package asset

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wolfeidau/partchain/internal/digest"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/store"
)

// Get returns the asset the caller holds for serial.
func Get(ctx context.Context, s store.PrivateStore, tx store.Tx, serial string) (*models.Asset, error) {
	if serial == "" {
		return nil, fault.Validation("request is missing serialNumberCustomer")
	}
	return GetByKey(ctx, s, tx, digest.OwnerKey(serial, tx.Caller))
}

// GetByKey returns the asset stored at key in the caller's partition. Event
// payloads carry such keys.
func GetByKey(ctx context.Context, s store.PrivateStore, tx store.Tx, key string) (*models.Asset, error) {
	if key == "" {
		return nil, fault.Validation("request is missing key")
	}

	var a models.Asset
	found, err := store.GetPrivateJSON(ctx, s, store.Partition(tx.Caller), key, &a)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fault.NotFound("asset not found in %s", store.Partition(tx.Caller))
	}
	return &a, nil
}

// GetPublic returns the public envelope of serial.
func GetPublic(ctx context.Context, s store.PublicStore, serial string) (*models.AssetEnvelope, error) {
	if serial == "" {
		return nil, fault.Validation("request is missing serialNumberCustomer")
	}

	var env models.AssetEnvelope
	found, err := store.GetPublicJSON(ctx, s, digest.IdentityHash(serial), &env)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fault.NotFound("asset %s has no public record", serial)
	}
	return &env, nil
}

// storedView is the part of a stored asset compared by IsCurrent. The owner
// scoped fields are included so the comparison strips them.
type storedView struct {
	models.AssetFields
	SerialNumberCustomerHash string `json:"serialNumberCustomerHash"`
	OwnerKey                 string `json:"ownerKey"`
}

// IsCurrent reports whether f matches the descriptor the caller holds.
func IsCurrent(ctx context.Context, s store.PrivateStore, tx store.Tx, f models.AssetFields) (bool, error) {
	stored, err := Get(ctx, s, tx, f.SerialNumberCustomer)
	if err != nil {
		return false, err
	}

	view := storedView{
		AssetFields:              stored.AssetFields,
		SerialNumberCustomerHash: stored.SerialNumberCustomerHash,
		OwnerKey:                 stored.OwnerKey,
	}

	current, err := digest.IsCurrent(view, f)
	if err != nil {
		return false, fault.Internal(err, "failed to compare asset %s", f.SerialNumberCustomer)
	}
	return current, nil
}

// Validate reports whether f hashes to the shared hash anchored on the public
// ledger for its serial.
func Validate(ctx context.Context, s store.PublicStore, f models.AssetFields) (bool, error) {
	if err := ValidateFields(f); err != nil {
		return false, err
	}

	env, err := GetPublic(ctx, s, f.SerialNumberCustomer)
	if err != nil {
		return false, err
	}

	ok, err := digest.ValidateShared(env.SharedHash, f)
	if err != nil {
		return false, fault.Internal(err, "failed to hash asset %s", f.SerialNumberCustomer)
	}
	return ok, nil
}

// History returns every envelope written for serial, oldest first.
func History(ctx context.Context, s store.PublicStore, serial string) ([]models.AssetEnvelopeVersion, error) {
	if serial == "" {
		return nil, fault.Validation("request is missing serialNumberCustomer")
	}

	mods, err := s.History(ctx, digest.IdentityHash(serial))
	if err != nil {
		return nil, fault.Internal(err, "failed to read history of %s", serial)
	}
	if len(mods) == 0 {
		return nil, fault.NotFound("asset %s has no public record", serial)
	}

	versions := make([]models.AssetEnvelopeVersion, 0, len(mods))
	for _, m := range mods {
		v := models.AssetEnvelopeVersion{
			TxID:      m.TxID,
			Timestamp: m.Timestamp.UTC().Format(store.TimestampLayout),
			IsDelete:  m.IsDelete,
		}
		if !m.IsDelete && len(m.Value) > 0 {
			var env models.AssetEnvelope
			if err := json.Unmarshal(m.Value, &env); err != nil {
				return nil, fault.Internal(err, "failed to decode envelope of %s at %s", serial, m.TxID)
			}
			v.Value = &env
		}
		versions = append(versions, v)
	}

	return versions, nil
}

// ListInput is the payload of GetAssetList. Selector narrows the caller's
// assets by field equality and may be empty.
type ListInput struct {
	Selector map[string]any `json:"selector,omitempty"`
}

// List returns the caller's assets matching the selector.
func List(ctx context.Context, s store.PrivateStore, tx store.Tx, in ListInput) ([]*models.Asset, error) {
	selector := map[string]any{}
	for k, v := range in.Selector {
		selector[k] = v
	}
	selector["docType"] = models.DocTypeAsset

	query, err := json.Marshal(map[string]any{"selector": selector})
	if err != nil {
		return nil, fault.Validation("selector cannot be encoded: %s", err)
	}

	docs, err := s.QueryPrivate(ctx, store.Partition(tx.Caller), string(query))
	if err != nil {
		if errors.Is(err, store.ErrBadQuery) {
			return nil, fault.Validation("%s", err)
		}
		return nil, fault.Internal(err, "failed to query assets in %s", store.Partition(tx.Caller))
	}

	assets := make([]*models.Asset, 0, len(docs))
	for _, doc := range docs {
		var a models.Asset
		if err := json.Unmarshal(doc, &a); err != nil {
			return nil, fault.Internal(err, "failed to decode asset in %s", store.Partition(tx.Caller))
		}
		assets = append(assets, &a)
	}

	return assets, nil
}
