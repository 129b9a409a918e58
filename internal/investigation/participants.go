package investigation

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/aescbc"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/registry"
	"github.com/wolfeidau/partchain/internal/store"
)

var errNotParticipant = errors.New("not a participant")

// AddOrgInput is the payload of AddOrganisationToInvestigation.
type AddOrgInput struct {
	InvestigationID string `json:"investigationID"`
	Secret1         string `json:"secret1"`
	IV              string `json:"iv"`
	TargetOrg       string `json:"targetOrg"`
}

// Validate checks lengths and key formats.
func (in AddOrgInput) Validate() error {
	if err := requireID(in.InvestigationID); err != nil {
		return err
	}
	if in.TargetOrg == "" {
		return fault.Validation("request is missing targetOrg")
	}
	if err := checkLength("targetOrg", in.TargetOrg); err != nil {
		return err
	}
	return requireSecret1(in.Secret1, in.IV)
}

// StatusInput is the payload of UpdateOrgInvestigationStatus.
type StatusInput struct {
	InvestigationID string                   `json:"investigationID"`
	Status          models.ParticipantStatus `json:"status"`
}

// Validate checks the requested status is one a participant may declare.
func (in StatusInput) Validate() error {
	if err := requireID(in.InvestigationID); err != nil {
		return err
	}
	if in.Status != models.ParticipantApproved && in.Status != models.ParticipantRejected {
		return fault.Validation("status must be APPROVED or REJECTED, got %q", in.Status)
	}
	return nil
}

// ShareKeyInput is the payload of ShareInvestigationKey.
type ShareKeyInput struct {
	InvestigationID string `json:"investigationID"`
	Secret1         string `json:"secret1"`
	Secret2         string `json:"secret2"`
	IV              string `json:"iv"`
	TargetOrg       string `json:"targetOrg"`
}

// Validate checks lengths and key formats.
func (in ShareKeyInput) Validate() error {
	if err := requireID(in.InvestigationID); err != nil {
		return err
	}
	if in.TargetOrg == "" {
		return fault.Validation("request is missing targetOrg")
	}
	if err := requireSecret1(in.Secret1, in.IV); err != nil {
		return err
	}
	if !validSecret(in.Secret2) {
		return fault.Validation("secret2 must be %d hex characters", 2*aescbc.KeySize)
	}
	return nil
}

// SerialsInput is the payload of AddSerialNumberCustomer.
type SerialsInput struct {
	InvestigationID         string   `json:"investigationID"`
	ComponentsSerialNumbers []string `json:"componentsSerialNumbers"`
}

// Validate checks the list is present.
func (in SerialsInput) Validate() error {
	if err := requireID(in.InvestigationID); err != nil {
		return err
	}
	if len(in.ComponentsSerialNumbers) == 0 {
		return fault.Validation("componentsSerialNumbers must not be empty")
	}
	for _, s := range in.ComponentsSerialNumbers {
		if s == "" {
			return fault.Validation("componentsSerialNumbers must not contain empty serials")
		}
	}
	return nil
}

// AddOrganisation invites targetOrg. The target receives secret1 and the iv
// but not secret2, and joins as PENDING.
func AddOrganisation(ctx context.Context, l store.Ledger, tx store.Tx, in AddOrgInput) (*models.InvestigationPublic, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pub, err := loadActive(ctx, l, in.InvestigationID)
	if err != nil {
		return nil, err
	}

	keys, err := requireKeyring(ctx, l, tx.Caller, in.InvestigationID)
	if err != nil {
		return nil, err
	}
	if keys.private.Secret1 != in.Secret1 || keys.private.IV != in.IV {
		return nil, fault.PermissionDenied("%s does not hold the supplied keys for investigation %s", tx.Caller, in.InvestigationID)
	}

	if _, err := registry.Lookup(ctx, l, in.TargetOrg); err != nil {
		return nil, err
	}

	target := keys.orgs.Encrypt(in.TargetOrg)
	if _, ok := pub.ParticipatingOrgs[target]; ok || slices.Contains(pub.Entities, target) {
		return nil, fault.PermissionDenied("%s is already part of investigation %s", in.TargetOrg, in.InvestigationID)
	}

	invite := &models.InvestigationPrivate{
		ID:      in.InvestigationID,
		DocType: models.DocTypeInvestigation,
		Secret1: in.Secret1,
		Secret2: "",
		IV:      in.IV,
		Type:    keys.private.Type,
	}
	if err := store.PutPrivateJSON(ctx, l, store.Partition(in.TargetOrg), in.InvestigationID, invite); err != nil {
		return nil, err
	}

	pub.Entities = append(pub.Entities, target)
	pub.ParticipatingOrgs[target] = &models.ParticipatingOrg{
		OrgIDEnc:             target,
		Status:               models.ParticipantPending,
		SerialNumberCustomer: []string{},
		Timestamp:            tx.Stamp(),
	}
	if err := save(ctx, l, pub); err != nil {
		return nil, err
	}

	log.Debug().Str("investigation", in.InvestigationID).Str("target", in.TargetOrg).Msg("Invited organisation")

	return pub, nil
}

// UpdateStatus lets an invited organization approve or reject its
// participation. Approval asks the creator to share secret2.
func UpdateStatus(ctx context.Context, l store.Ledger, tx store.Tx, in StatusInput) (*models.InvestigationPublic, error) {
	if err := in.Validate(); err != nil {
		return nil, err
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
	if err := checkTransition(self.Status, in.Status, actorSelf); err != nil {
		return nil, err
	}

	self.Status = in.Status
	self.Timestamp = tx.Stamp()
	if err := save(ctx, l, pub); err != nil {
		return nil, err
	}

	if in.Status == models.ParticipantApproved {
		creator, err := keys.orgs.Decrypt(pub.Creator)
		if err != nil {
			return nil, fault.Internal(err, "failed to decrypt creator of investigation %s", in.InvestigationID)
		}
		ev := models.AssetEvent{Key: in.InvestigationID, OrgID: creator}
		if err := store.EmitJSON(ctx, l, models.EventRequest, ev); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("investigation", in.InvestigationID).
		Str("org", tx.Caller).
		Str("status", string(in.Status)).
		Msg("Updated participant status")

	return pub, nil
}

// ShareKey is called by the creator to hand the full keys to a PENDING or
// APPROVED participant, which becomes ACTIVE.
func ShareKey(ctx context.Context, l store.Ledger, tx store.Tx, in ShareKeyInput) (*models.InvestigationPublic, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pub, err := loadActive(ctx, l, in.InvestigationID)
	if err != nil {
		return nil, err
	}

	supplied, err := newKeyring(&models.InvestigationPrivate{Secret1: in.Secret1, Secret2: in.Secret2, IV: in.IV})
	if err != nil {
		return nil, fault.Validation("%s", err)
	}
	if supplied.orgs.Encrypt(tx.Caller) != pub.Creator {
		return nil, fault.PermissionDenied("%s is not the creator of investigation %s", tx.Caller, in.InvestigationID)
	}

	held, err := requireKeyring(ctx, l, tx.Caller, in.InvestigationID)
	if err != nil {
		return nil, err
	}
	if held.private.Secret1 != in.Secret1 || held.private.Secret2 != in.Secret2 || held.private.IV != in.IV {
		return nil, fault.PermissionDenied("supplied keys do not match investigation %s", in.InvestigationID)
	}

	target, err := participant(pub, held, in.TargetOrg)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(target.Status, models.ParticipantActive, actorCreator); err != nil {
		return nil, err
	}

	full := &models.InvestigationPrivate{
		ID:      in.InvestigationID,
		DocType: models.DocTypeInvestigation,
		Secret1: in.Secret1,
		Secret2: in.Secret2,
		IV:      in.IV,
		Type:    held.private.Type,
	}
	if err := store.PutPrivateJSON(ctx, l, store.Partition(in.TargetOrg), in.InvestigationID, full); err != nil {
		return nil, err
	}

	target.Status = models.ParticipantActive
	target.Timestamp = tx.Stamp()
	if err := save(ctx, l, pub); err != nil {
		return nil, err
	}

	log.Debug().
		Str("investigation", in.InvestigationID).
		Str("target", in.TargetOrg).
		Str("secret2", aescbc.Fingerprint(in.Secret2)).
		Msg("Shared investigation key")

	return pub, nil
}

// AddSerials appends serials to the caller's list, encrypted under secret2.
// Serials already listed are skipped.
func AddSerials(ctx context.Context, l store.Ledger, tx store.Tx, in SerialsInput) (*models.InvestigationPublic, error) {
	if err := in.Validate(); err != nil {
		return nil, err
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

	for _, enc := range keys.serials.EncryptAll(in.ComponentsSerialNumbers) {
		if !slices.Contains(self.SerialNumberCustomer, enc) {
			self.SerialNumberCustomer = append(self.SerialNumberCustomer, enc)
		}
	}
	self.Timestamp = tx.Stamp()

	if err := save(ctx, l, pub); err != nil {
		return nil, err
	}

	log.Debug().
		Str("investigation", in.InvestigationID).
		Str("org", tx.Caller).
		Int("serials", len(self.SerialNumberCustomer)).
		Msg("Added serials to investigation")

	return pub, nil
}

// participant returns the public entry of org, addressed by its ciphertext
// under secret1.
func participant(pub *models.InvestigationPublic, keys *keyring, org string) (*models.ParticipatingOrg, error) {
	p, ok := pub.ParticipatingOrgs[keys.orgs.Encrypt(org)]
	if !ok || p == nil {
		return nil, fault.PermissionDenied("%s is %s of investigation %s", org, errNotParticipant, pub.ID)
	}
	if p.SerialNumberCustomer == nil {
		p.SerialNumberCustomer = []string{}
	}
	return p, nil
}
