// Package registry tracks enrolled organizations and their relationship tables.
package registry

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/store"
)

// Enroll records a new organization with an empty relationship table.
func Enroll(ctx context.Context, s store.PublicStore, id string) (*models.Organization, error) {
	if id == "" {
		return nil, fault.Validation("organisation id is required")
	}

	existing, err := s.GetPublic(ctx, id)
	if err != nil {
		return nil, fault.Internal(err, "failed to read public key %q", id)
	}
	if len(existing) > 0 {
		return nil, fault.Conflict("organisation %s is already enrolled", id)
	}

	org := &models.Organization{
		DocType: models.DocTypeOrganization,
		ID:      id,
		ACL:     map[string]*models.Relationship{},
	}
	if err := Save(ctx, s, org); err != nil {
		return nil, err
	}

	log.Debug().Str("org", id).Msg("Enrolled organisation")

	return org, nil
}

// Lookup returns the enrolled organization id. Other records sharing the
// public key space, such as investigations and asset envelopes, are reported
// as not enrolled.
func Lookup(ctx context.Context, s store.PublicStore, id string) (*models.Organization, error) {
	value, err := s.GetPublic(ctx, id)
	if err != nil {
		return nil, fault.Internal(err, "failed to read public key %q", id)
	}
	if len(value) == 0 {
		return nil, fault.NotFound("organisation %s is not enrolled", id)
	}

	var org models.Organization
	if err := json.Unmarshal(value, &org); err != nil || org.DocType != models.DocTypeOrganization || org.ID != id {
		return nil, fault.NotFound("organisation %s is not enrolled", id)
	}
	if org.ACL == nil {
		org.ACL = map[string]*models.Relationship{}
	}
	return &org, nil
}

// Save writes the organization record.
func Save(ctx context.Context, s store.PublicStore, org *models.Organization) error {
	return store.PutPublicJSON(ctx, s, org.ID, org)
}
