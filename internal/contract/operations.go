package contract

import (
	"context"

	"github.com/wolfeidau/partchain/internal/asset"
	"github.com/wolfeidau/partchain/internal/investigation"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/registry"
	"github.com/wolfeidau/partchain/internal/relationship"
	"github.com/wolfeidau/partchain/internal/store"
)

const (
	viaArgs      = false
	viaTransient = true
)

func operations() map[string]op {
	return map[string]op{
		// organizations and relationships
		"EnrollOrg": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, _ emptyInput) (any, error) {
			return registry.Enroll(ctx, l, tx.Caller)
		}),
		"GetOrgDetails": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, _ emptyInput) (any, error) {
			return registry.Lookup(ctx, l, tx.Caller)
		}),
		"CreateRequest": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in relationship.CreateInput) (any, error) {
			return relationship.Create(ctx, l, tx, in)
		}),
		"UpdateRequest": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in relationship.UpdateInput) (any, error) {
			return relationship.Update(ctx, l, tx, in)
		}),

		// assets
		"CreateAsset": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in models.AssetFields) (any, error) {
			return asset.Create(ctx, l, tx, in)
		}),
		"UpdateAsset": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in models.AssetFields) (any, error) {
			return asset.Update(ctx, l, tx, in)
		}),
		"IsAssetCurrent": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in models.AssetFields) (any, error) {
			current, err := asset.IsCurrent(ctx, l, tx, in)
			if err != nil {
				return nil, err
			}
			return map[string]bool{"isCurrent": current}, nil
		}),
		"RequestAsset": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in asset.RequestInput) (any, error) {
			return asset.Request(ctx, l, tx, in)
		}),
		"ExchangeAssetInfo": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in asset.ExchangeInput) (any, error) {
			return asset.Exchange(ctx, l, tx, in)
		}),
		"ValidateAsset": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in models.AssetFields) (any, error) {
			valid, err := asset.Validate(ctx, l, in)
			if err != nil {
				return nil, err
			}
			return map[string]bool{"valid": valid}, nil
		}),
		"GetAssetDetail": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in serialInput) (any, error) {
			return asset.Get(ctx, l, tx, in.SerialNumberCustomer)
		}),
		"GetAssetEventDetail": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in keyInput) (any, error) {
			return asset.GetByKey(ctx, l, tx, in.Key)
		}),
		"GetPublicAssetDetail": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in serialInput) (any, error) {
			return asset.GetPublic(ctx, l, in.SerialNumberCustomer)
		}),
		"GetAssetList": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in asset.ListInput) (any, error) {
			return asset.List(ctx, l, tx, in)
		}),
		"GetAssetHistory": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in serialInput) (any, error) {
			return asset.History(ctx, l, in.SerialNumberCustomer)
		}),

		// investigations
		"CreateInvestigation": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.CreateInput) (any, error) {
			return investigation.Create(ctx, l, tx, in)
		}),
		"CloseInvestigation": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.IDInput) (any, error) {
			return investigation.Close(ctx, l, tx, in)
		}),
		"GetPublicInvestigation": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.IDInput) (any, error) {
			return investigation.GetPublic(ctx, l, tx, in)
		}),
		"GetPrivateInvestigation": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.IDInput) (any, error) {
			return investigation.GetPrivate(ctx, l, tx, in)
		}),
		"GetAllInvestigation": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.ListInput) (any, error) {
			return investigation.GetAll(ctx, l, tx, in)
		}),
		"AddOrganisationToInvestigation": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.AddOrgInput) (any, error) {
			return investigation.AddOrganisation(ctx, l, tx, in)
		}),
		"UpdateOrgInvestigationStatus": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.StatusInput) (any, error) {
			return investigation.UpdateStatus(ctx, l, tx, in)
		}),
		"AddSerialNumberCustomer": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.SerialsInput) (any, error) {
			return investigation.AddSerials(ctx, l, tx, in)
		}),
		"ShareInvestigationKey": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.ShareKeyInput) (any, error) {
			return investigation.ShareKey(ctx, l, tx, in)
		}),
		"RequestAssetForInvestigation": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.AssetInput) (any, error) {
			return investigation.RequestAsset(ctx, l, tx, in)
		}),
		"ExchangeAssetForInvestigation": bind(viaTransient, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.AssetInput) (any, error) {
			return investigation.ExchangeAsset(ctx, l, tx, in)
		}),
		"DecryptDataForInvestigation": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.DataInput) (any, error) {
			return investigation.DecryptData(ctx, l, tx, in)
		}),
		"EncryptDataForInvestigation": bind(viaArgs, func(ctx context.Context, l store.Ledger, tx store.Tx, in investigation.DataInput) (any, error) {
			return investigation.EncryptData(ctx, l, tx, in)
		}),
	}
}
