// Package relationship implements the bilateral permission that gates every
// cross organization write. A relationship is stored twice, once in the ACL
// of each organization, and both copies are always written together.
package relationship

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/registry"
	"github.com/wolfeidau/partchain/internal/store"
)

var errDiverged = errors.New("relationship copies diverged")

// CreateInput is the payload of CreateRequest.
type CreateInput struct {
	TargetOrg string `json:"targetOrg"`
	Comment   string `json:"comment"`
}

// Validate checks required fields.
func (in CreateInput) Validate() error {
	if in.TargetOrg == "" {
		return fault.Validation("request is missing targetOrg")
	}
	return nil
}

// UpdateInput is the payload of UpdateRequest.
type UpdateInput struct {
	TargetOrg string                    `json:"targetOrg"`
	Status    models.RelationshipStatus `json:"status"`
	Comment   string                    `json:"comment"`
}

// Validate checks required fields and the requested status.
func (in UpdateInput) Validate() error {
	if in.TargetOrg == "" {
		return fault.Validation("request is missing targetOrg")
	}
	if in.Status == "" {
		return fault.Validation("request is missing status")
	}
	if !in.Status.Valid() {
		return fault.Validation("unknown relationship status %q", in.Status)
	}
	return nil
}

// Create opens a PENDING relationship between the caller and the target. It
// returns the caller's updated organization record.
func Create(ctx context.Context, s store.PublicStore, tx store.Tx, in CreateInput) (*models.Organization, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.TargetOrg == tx.Caller {
		return nil, fault.PermissionDenied("cannot create a relationship with the same organisation %s", tx.Caller)
	}

	caller, target, err := lookupPair(ctx, s, tx.Caller, in.TargetOrg)
	if err != nil {
		return nil, err
	}

	id := models.RelationshipID(tx.Caller, in.TargetOrg)
	if caller.ACL[id] != nil || target.ACL[id] != nil {
		return nil, fault.Conflict("relationship %s already exists between %s and %s", id, tx.Caller, in.TargetOrg)
	}

	rel := &models.Relationship{
		ID:        id,
		Entities:  []string{tx.Caller, in.TargetOrg},
		Status:    models.RelationshipPending,
		ChangedBy: tx.Caller,
		Comment:   in.Comment,
		Timestamp: tx.Stamp(),
		History:   []models.RelationshipChange{},
	}

	if err := writeBoth(ctx, s, caller, target, rel); err != nil {
		return nil, err
	}

	log.Debug().Str("relationship", id).Str("changed_by", tx.Caller).Msg("Created relationship")

	return caller, nil
}

// Update moves the relationship between the caller and the target to the
// requested status when the transition table allows it.
func Update(ctx context.Context, s store.PublicStore, tx store.Tx, in UpdateInput) (*models.Organization, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.TargetOrg == tx.Caller {
		return nil, fault.PermissionDenied("cannot update a relationship with the same organisation %s", tx.Caller)
	}

	caller, target, err := lookupPair(ctx, s, tx.Caller, in.TargetOrg)
	if err != nil {
		return nil, err
	}

	id := models.RelationshipID(tx.Caller, in.TargetOrg)
	current, err := consistentCopy(caller, target, id)
	if err != nil {
		return nil, err
	}

	if err := checkTransition(current, in.Status, tx.Caller); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.History = append(next.History, models.RelationshipChange{
		Comment:   current.Comment,
		Status:    current.Status,
		ChangedBy: current.ChangedBy,
		Timestamp: current.Timestamp,
	})
	next.Comment = in.Comment
	next.Status = in.Status
	next.ChangedBy = tx.Caller
	next.Timestamp = tx.Stamp()

	if err := writeBoth(ctx, s, caller, target, next); err != nil {
		return nil, err
	}

	log.Debug().
		Str("relationship", id).
		Str("from", string(current.Status)).
		Str("to", string(in.Status)).
		Str("changed_by", tx.Caller).
		Msg("Updated relationship")

	return caller, nil
}

// CheckActive re-reads both organizations and requires an ACTIVE relationship
// between them. It must be called in the same transaction as the guarded write.
func CheckActive(ctx context.Context, s store.PublicStore, a, b string) error {
	orgA, orgB, err := lookupPair(ctx, s, a, b)
	if err != nil {
		return err
	}

	id := models.RelationshipID(a, b)
	rel, err := consistentCopy(orgA, orgB, id)
	if err != nil {
		if fault.KindOf(err) == fault.KindInternal {
			return err
		}
		return fault.PermissionDenied("no relationship between %s and %s", a, b)
	}

	if rel.Status != models.RelationshipActive {
		return fault.PermissionDenied("relationship %s is %s, not ACTIVE", id, rel.Status)
	}

	return nil
}

func lookupPair(ctx context.Context, s store.PublicStore, a, b string) (*models.Organization, *models.Organization, error) {
	orgA, err := registry.Lookup(ctx, s, a)
	if err != nil {
		return nil, nil, err
	}
	orgB, err := registry.Lookup(ctx, s, b)
	if err != nil {
		return nil, nil, err
	}
	return orgA, orgB, nil
}

// consistentCopy returns the relationship id after checking both organizations
// hold an identical copy.
func consistentCopy(a, b *models.Organization, id string) (*models.Relationship, error) {
	ra, rb := a.ACL[id], b.ACL[id]
	if ra == nil || rb == nil {
		return nil, fault.NotFound("relationship %s does not exist between %s and %s", id, a.ID, b.ID)
	}

	ea, err := json.Marshal(ra)
	if err != nil {
		return nil, fault.Internal(err, "failed to encode relationship %s", id)
	}
	eb, err := json.Marshal(rb)
	if err != nil {
		return nil, fault.Internal(err, "failed to encode relationship %s", id)
	}
	if string(ea) != string(eb) {
		return nil, fault.Internal(errDiverged, "relationship %s held by %s and %s", id, a.ID, b.ID)
	}

	return ra, nil
}

// writeBoth is the only path which stores a relationship. Both organizations
// receive an identical copy in the same transaction.
func writeBoth(ctx context.Context, s store.PublicStore, a, b *models.Organization, rel *models.Relationship) error {
	a.ACL[rel.ID] = rel.Clone()
	b.ACL[rel.ID] = rel.Clone()

	if err := registry.Save(ctx, s, a); err != nil {
		return err
	}
	return registry.Save(ctx, s, b)
}
