package investigation

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/asset"
	"github.com/wolfeidau/partchain/internal/digest"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/store"
)

// Data types accepted by EncryptData and DecryptData.
const (
	DataMSP   = "MSP"
	DataAsset = "ASSET"
)

// AssetInput is the payload of RequestAssetForInvestigation and
// ExchangeAssetForInvestigation.
type AssetInput struct {
	InvestigationID      string `json:"investigationID"`
	SerialNumberCustomer string `json:"serialNumberCustomer"`
	TargetOrg            string `json:"targetOrg"`
}

// Validate checks required fields.
func (in AssetInput) Validate() error {
	if err := requireID(in.InvestigationID); err != nil {
		return err
	}
	if in.SerialNumberCustomer == "" {
		return fault.Validation("request is missing serialNumberCustomer")
	}
	if in.TargetOrg == "" {
		return fault.Validation("request is missing targetOrg")
	}
	return nil
}

// DataInput is the payload of EncryptDataForInvestigation and
// DecryptDataForInvestigation.
type DataInput struct {
	InvestigationID string   `json:"investigationID"`
	Type            string   `json:"type"`
	Data            []string `json:"data"`
}

// Validate checks the data type.
func (in DataInput) Validate() error {
	if err := requireID(in.InvestigationID); err != nil {
		return err
	}
	if in.Type != DataMSP && in.Type != DataAsset {
		return fault.Validation("type must be %s or %s, got %q", DataMSP, DataAsset, in.Type)
	}
	return nil
}

// sharingContext is what both asset operations need once membership has
// been checked.
type sharingContext struct {
	pub    *models.InvestigationPublic
	keys   *keyring
	self   *models.ParticipatingOrg
	target *models.ParticipatingOrg
}

func loadSharing(ctx context.Context, l store.Ledger, tx store.Tx, in AssetInput) (*sharingContext, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.TargetOrg == tx.Caller {
		return nil, fault.PermissionDenied("cannot share assets of investigation %s with the same organisation %s", in.InvestigationID, tx.Caller)
	}

	pub, err := loadActive(ctx, l, in.InvestigationID)
	if err != nil {
		return nil, err
	}

	keys, err := requireKeyring(ctx, l, tx.Caller, in.InvestigationID)
	if err != nil {
		return nil, err
	}

	self, err := participant(pub, keys, tx.Caller)
	if err != nil {
		return nil, err
	}
	if self.Status != models.ParticipantActive || !keys.hasSerialKey() {
		return nil, fault.PermissionDenied("%s is %s in investigation %s, not ACTIVE", tx.Caller, self.Status, in.InvestigationID)
	}

	target, err := participant(pub, keys, in.TargetOrg)
	if err != nil {
		return nil, err
	}

	return &sharingContext{pub: pub, keys: keys, self: self, target: target}, nil
}

// RequestAsset asks an ACTIVE participant for a part it declared in the
// investigation. The event carries only ciphertexts apart from the target.
func RequestAsset(ctx context.Context, l store.Ledger, tx store.Tx, in AssetInput) (*models.InvestigationEvent, error) {
	sc, err := loadSharing(ctx, l, tx, in)
	if err != nil {
		return nil, err
	}

	if sc.target.Status != models.ParticipantActive {
		return nil, fault.PermissionDenied("%s is %s in investigation %s, not ACTIVE", in.TargetOrg, sc.target.Status, in.InvestigationID)
	}

	key := sc.keys.serials.Encrypt(in.SerialNumberCustomer)
	if !slices.Contains(sc.target.SerialNumberCustomer, key) {
		return nil, fault.PermissionDenied("serial is not declared by %s in investigation %s", in.TargetOrg, in.InvestigationID)
	}

	ev := &models.InvestigationEvent{
		InvestigationID: in.InvestigationID,
		Key:             key,
		OrgIDEnc:        sc.keys.orgs.Encrypt(tx.Caller),
		OrgID:           in.TargetOrg,
	}
	if err := store.EmitJSON(ctx, l, models.EventRequestInvestigation, ev); err != nil {
		return nil, err
	}

	log.Debug().Str("investigation", in.InvestigationID).Str("target", in.TargetOrg).Msg("Requested asset for investigation")

	return ev, nil
}

// ExchangeAsset sends the caller's asset for a serial it declared in the
// investigation to a participant which has not rejected it.
func ExchangeAsset(ctx context.Context, l store.Ledger, tx store.Tx, in AssetInput) (*models.InvestigationEvent, error) {
	sc, err := loadSharing(ctx, l, tx, in)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(sc.self.SerialNumberCustomer, sc.keys.serials.Encrypt(in.SerialNumberCustomer)) {
		return nil, fault.PermissionDenied("serial is not declared by %s in investigation %s", tx.Caller, in.InvestigationID)
	}
	if sc.target.Status == models.ParticipantRejected {
		return nil, fault.PermissionDenied("%s rejected investigation %s", in.TargetOrg, in.InvestigationID)
	}

	owned, err := asset.Get(ctx, l, tx, in.SerialNumberCustomer)
	if err != nil {
		return nil, err
	}
	if err := asset.Send(ctx, l, tx, owned, in.TargetOrg); err != nil {
		return nil, err
	}

	ev := &models.InvestigationEvent{
		InvestigationID: in.InvestigationID,
		Key:             sc.keys.serials.Encrypt(digest.OwnerKey(in.SerialNumberCustomer, in.TargetOrg)),
		OrgIDEnc:        sc.keys.orgs.Encrypt(tx.Caller),
		OrgID:           in.TargetOrg,
	}
	if err := store.EmitJSON(ctx, l, models.EventExchangeInvestigation, ev); err != nil {
		return nil, err
	}

	log.Debug().Str("investigation", in.InvestigationID).Str("target", in.TargetOrg).Msg("Exchanged asset for investigation")

	return ev, nil
}

// EncryptData encrypts values with the caller's keys: organizations under
// secret1 and serials or keys under secret2.
func EncryptData(ctx context.Context, s store.PrivateStore, tx store.Tx, in DataInput) ([]string, error) {
	keys, err := dataKeys(ctx, s, tx, in)
	if err != nil {
		return nil, err
	}
	if in.Type == DataMSP {
		return keys.orgs.EncryptAll(in.Data), nil
	}
	return keys.serials.EncryptAll(in.Data), nil
}

// DecryptData reverses EncryptData.
func DecryptData(ctx context.Context, s store.PrivateStore, tx store.Tx, in DataInput) ([]string, error) {
	keys, err := dataKeys(ctx, s, tx, in)
	if err != nil {
		return nil, err
	}

	c := keys.serials
	if in.Type == DataMSP {
		c = keys.orgs
	}
	out, err := c.DecryptAll(in.Data)
	if err != nil {
		return nil, fault.Validation("cannot decrypt data for investigation %s: %s", in.InvestigationID, err)
	}
	return out, nil
}

func dataKeys(ctx context.Context, s store.PrivateStore, tx store.Tx, in DataInput) (*keyring, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	keys, found, err := loadKeyring(ctx, s, tx.Caller, in.InvestigationID)
	if err != nil {
		return nil, err
	}
	if !found || !keys.hasSerialKey() {
		return nil, fault.NotFound("investigation %s keys not found in %s", in.InvestigationID, store.Partition(tx.Caller))
	}
	return keys, nil
}
