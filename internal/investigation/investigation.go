// Package investigation implements confidential multi party investigations.
//
// The public record names participants only as ciphertexts under secret1 and
// lists their serials as ciphertexts under secret2. Every participant keeps
// its own private half with the keys it was given; invited organizations
// receive secret2 only once the creator shares it.
package investigation

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/aescbc"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/store"
)

const maxFieldLength = "100"

// CreateInput is the payload of CreateInvestigation.
type CreateInput struct {
	InvestigationID string `json:"investigationID"`
	Message         string `json:"message"`
	Type            string `json:"type"`
	Secret1         string `json:"secret1"`
	Secret2         string `json:"secret2"`
	IV              string `json:"iv"`
}

// Validate checks lengths and key formats.
func (in CreateInput) Validate() error {
	if err := requireID(in.InvestigationID); err != nil {
		return err
	}
	if err := checkLength("message", in.Message); err != nil {
		return err
	}
	if err := checkLength("type", in.Type); err != nil {
		return err
	}
	if err := requireSecret1(in.Secret1, in.IV); err != nil {
		return err
	}
	if !validSecret(in.Secret2) {
		return fault.Validation("secret2 must be %d hex characters", 2*aescbc.KeySize)
	}
	if in.Secret1 == in.Secret2 {
		return fault.Validation("secret1 and secret2 must differ")
	}
	return nil
}

// IDInput names an investigation.
type IDInput struct {
	InvestigationID string `json:"investigationID"`
}

// Validate checks required fields.
func (in IDInput) Validate() error {
	return requireID(in.InvestigationID)
}

// ListInput is the payload of GetAllInvestigation.
type ListInput struct {
	Selector map[string]any `json:"selector,omitempty"`
}

// Create opens an investigation with the caller as its only, ACTIVE,
// participant.
func Create(ctx context.Context, l store.Ledger, tx store.Tx, in CreateInput) (*models.InvestigationPublic, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := l.GetPublic(ctx, in.InvestigationID)
	if err != nil {
		return nil, fault.Internal(err, "failed to read investigation %s", in.InvestigationID)
	}
	if len(existing) > 0 {
		return nil, fault.Conflict("investigation %s already exists", in.InvestigationID)
	}

	priv := &models.InvestigationPrivate{
		ID:      in.InvestigationID,
		DocType: models.DocTypeInvestigation,
		Secret1: in.Secret1,
		Secret2: in.Secret2,
		IV:      in.IV,
		Type:    in.Type,
	}
	keys, err := newKeyring(priv)
	if err != nil {
		return nil, fault.Validation("%s", err)
	}

	creator := keys.orgs.Encrypt(tx.Caller)
	pub := &models.InvestigationPublic{
		ID:       in.InvestigationID,
		Creator:  creator,
		Entities: []string{creator},
		ParticipatingOrgs: map[string]*models.ParticipatingOrg{
			creator: {
				OrgIDEnc:             creator,
				Status:               models.ParticipantActive,
				SerialNumberCustomer: []string{},
				Timestamp:            tx.Stamp(),
			},
		},
		Status:    models.InvestigationActive,
		Message:   in.Message,
		Type:      in.Type,
		Timestamp: tx.Stamp(),
	}

	if err := store.PutPrivateJSON(ctx, l, store.Partition(tx.Caller), in.InvestigationID, priv); err != nil {
		return nil, err
	}
	if err := save(ctx, l, pub); err != nil {
		return nil, err
	}

	log.Debug().
		Str("investigation", in.InvestigationID).
		Str("secret1", aescbc.Fingerprint(in.Secret1)).
		Str("secret2", aescbc.Fingerprint(in.Secret2)).
		Msg("Created investigation")

	return pub, nil
}

// Close completes an ACTIVE investigation. Only the creator may close it.
func Close(ctx context.Context, l store.Ledger, tx store.Tx, in IDInput) (*models.InvestigationPublic, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pub, err := load(ctx, l, in.InvestigationID)
	if err != nil {
		return nil, err
	}

	keys, found, err := loadKeyring(ctx, l, tx.Caller, in.InvestigationID)
	if err != nil {
		return nil, err
	}
	if !found || keys.orgs.Encrypt(tx.Caller) != pub.Creator {
		return nil, fault.PermissionDenied("%s is not the creator of investigation %s", tx.Caller, in.InvestigationID)
	}
	if pub.Status != models.InvestigationActive {
		return nil, fault.PermissionDenied("investigation %s is %s, not ACTIVE", in.InvestigationID, pub.Status)
	}

	pub.Status = models.InvestigationComplete
	pub.TimestampClose = tx.Stamp()

	if err := save(ctx, l, pub); err != nil {
		return nil, err
	}

	log.Debug().Str("investigation", in.InvestigationID).Msg("Closed investigation")

	return pub, nil
}

// GetPublic returns the public record decrypted as far as the caller's keys
// allow. Without a private half the ciphertexts are returned untouched, and
// serials stay encrypted until the caller holds secret2.
func GetPublic(ctx context.Context, s store.Ledger, tx store.Tx, in IDInput) (*models.InvestigationPublic, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pub, err := load(ctx, s, in.InvestigationID)
	if err != nil {
		return nil, err
	}

	keys, found, err := loadKeyring(ctx, s, tx.Caller, in.InvestigationID)
	if err != nil {
		return nil, err
	}
	if !found {
		return pub, nil
	}

	out, err := decryptPublic(pub, keys)
	if err != nil {
		return nil, fault.Internal(err, "failed to decrypt investigation %s", in.InvestigationID)
	}
	return out, nil
}

func decryptPublic(pub *models.InvestigationPublic, keys *keyring) (*models.InvestigationPublic, error) {
	out := *pub

	var err error
	if out.Creator, err = keys.orgs.Decrypt(pub.Creator); err != nil {
		return nil, err
	}
	if out.Entities, err = keys.orgs.DecryptAll(pub.Entities); err != nil {
		return nil, err
	}

	out.ParticipatingOrgs = make(map[string]*models.ParticipatingOrg, len(pub.ParticipatingOrgs))
	for enc, p := range pub.ParticipatingOrgs {
		org, err := keys.orgs.Decrypt(enc)
		if err != nil {
			return nil, err
		}

		cp := *p
		cp.OrgIDEnc = org
		cp.SerialNumberCustomer = append([]string{}, p.SerialNumberCustomer...)
		if keys.hasSerialKey() {
			if cp.SerialNumberCustomer, err = keys.serials.DecryptAll(p.SerialNumberCustomer); err != nil {
				return nil, err
			}
		}
		out.ParticipatingOrgs[org] = &cp
	}

	return &out, nil
}

// GetPrivate returns the caller's private half of an investigation.
func GetPrivate(ctx context.Context, s store.PrivateStore, tx store.Tx, in IDInput) (*models.InvestigationPrivate, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var priv models.InvestigationPrivate
	found, err := store.GetPrivateJSON(ctx, s, store.Partition(tx.Caller), in.InvestigationID, &priv)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fault.NotFound("investigation %s not found in %s", in.InvestigationID, store.Partition(tx.Caller))
	}
	return &priv, nil
}

// GetAll returns every private half the caller holds matching the selector.
func GetAll(ctx context.Context, s store.PrivateStore, tx store.Tx, in ListInput) ([]*models.InvestigationPrivate, error) {
	selector := map[string]any{}
	for k, v := range in.Selector {
		selector[k] = v
	}
	selector["docType"] = models.DocTypeInvestigation

	query, err := json.Marshal(map[string]any{"selector": selector})
	if err != nil {
		return nil, fault.Validation("selector cannot be encoded: %s", err)
	}

	docs, err := s.QueryPrivate(ctx, store.Partition(tx.Caller), string(query))
	if err != nil {
		if errors.Is(err, store.ErrBadQuery) {
			return nil, fault.Validation("%s", err)
		}
		return nil, fault.Internal(err, "failed to query investigations in %s", store.Partition(tx.Caller))
	}

	out := make([]*models.InvestigationPrivate, 0, len(docs))
	for _, doc := range docs {
		var priv models.InvestigationPrivate
		if err := json.Unmarshal(doc, &priv); err != nil {
			return nil, fault.Internal(err, "failed to decode investigation in %s", store.Partition(tx.Caller))
		}
		out = append(out, &priv)
	}
	return out, nil
}

func load(ctx context.Context, s store.PublicStore, id string) (*models.InvestigationPublic, error) {
	var pub models.InvestigationPublic
	found, err := store.GetPublicJSON(ctx, s, id, &pub)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fault.NotFound("investigation %s not found", id)
	}
	if pub.ParticipatingOrgs == nil {
		pub.ParticipatingOrgs = map[string]*models.ParticipatingOrg{}
	}
	return &pub, nil
}

// loadActive is load for operations which require the investigation to be
// ACTIVE.
func loadActive(ctx context.Context, s store.PublicStore, id string) (*models.InvestigationPublic, error) {
	pub, err := load(ctx, s, id)
	if err != nil {
		return nil, err
	}
	if pub.Status != models.InvestigationActive {
		return nil, fault.PermissionDenied("investigation %s is %s, not ACTIVE", id, pub.Status)
	}
	return pub, nil
}

func save(ctx context.Context, s store.PublicStore, pub *models.InvestigationPublic) error {
	return store.PutPublicJSON(ctx, s, pub.ID, pub)
}
