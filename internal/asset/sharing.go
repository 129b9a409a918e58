package asset

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/digest"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/relationship"
	"github.com/wolfeidau/partchain/internal/store"
)

// RequestInput is the payload of RequestAsset. The customer describes the
// part it received and names the supplier expected to answer.
type RequestInput struct {
	models.AssetFields
	SupplierOrg        string               `json:"supplierOrg"`
	ChildSerialNumbers []models.ChildSerial `json:"childSerialNumberCustomer,omitempty"`
}

// Validate checks the descriptor fields and the supplier.
func (in RequestInput) Validate() error {
	if in.SupplierOrg == "" {
		return fault.Validation("request is missing supplierOrg")
	}
	return ValidateFields(in.AssetFields)
}

// ExchangeInput is the payload of ExchangeAssetInfo.
type ExchangeInput struct {
	SerialNumberCustomer string `json:"serialNumberCustomer"`
	RequesterOrg         string `json:"requesterOrg"`
}

// Validate checks required fields.
func (in ExchangeInput) Validate() error {
	if in.SerialNumberCustomer == "" {
		return fault.Validation("request is missing serialNumberCustomer")
	}
	if in.RequesterOrg == "" {
		return fault.Validation("request is missing requesterOrg")
	}
	return nil
}

// Request asks the supplier for the data of a part. Unless the supplier is
// the caller, a shadow copy of the request is written into the supplier's
// partition once the relationship is confirmed ACTIVE.
func Request(ctx context.Context, l store.Ledger, tx store.Tx, in RequestInput) (*models.AssetEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	event := &models.AssetEvent{
		Key:   digest.OwnerKey(in.SerialNumberCustomer, in.SupplierOrg),
		OrgID: in.SupplierOrg,
	}

	if in.SupplierOrg != tx.Caller {
		if err := relationship.CheckActive(ctx, l, tx.Caller, in.SupplierOrg); err != nil {
			return nil, err
		}

		shadow, err := newAsset(in.AssetFields, in.SupplierOrg, tx.Caller)
		if err != nil {
			return nil, err
		}
		shadow.ChildSerialNumbers = append([]models.ChildSerial{}, in.ChildSerialNumbers...)

		if err := store.PutPrivateJSON(ctx, l, store.Partition(in.SupplierOrg), shadow.OwnerKey, shadow); err != nil {
			return nil, err
		}
	}

	if err := store.EmitJSON(ctx, l, models.EventRequest, event); err != nil {
		return nil, err
	}

	log.Debug().Str("org", tx.Caller).Str("supplier", in.SupplierOrg).Msg("Requested asset")

	return event, nil
}

// Exchange sends the caller's asset to the requester. Unless the requester is
// the caller, the full descriptor is written into the requester's partition
// once the relationship is confirmed ACTIVE.
func Exchange(ctx context.Context, l store.Ledger, tx store.Tx, in ExchangeInput) (*models.AssetEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	event := &models.AssetEvent{
		Key:   digest.OwnerKey(in.SerialNumberCustomer, in.RequesterOrg),
		OrgID: in.RequesterOrg,
	}

	if in.RequesterOrg != tx.Caller {
		owned, err := Get(ctx, l, tx, in.SerialNumberCustomer)
		if err != nil {
			return nil, err
		}

		if err := relationship.CheckActive(ctx, l, tx.Caller, in.RequesterOrg); err != nil {
			return nil, err
		}

		if err := Send(ctx, l, tx, owned, in.RequesterOrg); err != nil {
			return nil, err
		}
	}

	if err := store.EmitJSON(ctx, l, models.EventExchange, event); err != nil {
		return nil, err
	}

	log.Debug().Str("org", tx.Caller).Str("requester", in.RequesterOrg).Msg("Exchanged asset")

	return event, nil
}

// Send writes a copy of owned into target's partition at the target scoped
// owner key. Callers authorize the write in the same transaction.
func Send(ctx context.Context, l store.Ledger, tx store.Tx, owned *models.Asset, target string) error {
	cp, err := newAsset(owned.AssetFields, target, tx.Caller)
	if err != nil {
		return err
	}
	return store.PutPrivateJSON(ctx, l, store.Partition(target), cp.OwnerKey, cp)
}
