package relationship

import (
	"errors"

	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
)

var errUnknownStatus = errors.New("unknown relationship status")

type transitionRule struct {
	// allowed target states from the current state
	allowed map[models.RelationshipStatus]bool
	// the organization which made the last change may not move it on
	denyLastChanger bool
}

var transitions = map[models.RelationshipStatus]transitionRule{
	models.RelationshipPending: {
		allowed: map[models.RelationshipStatus]bool{
			models.RelationshipActive:   true,
			models.RelationshipInactive: true,
		},
		denyLastChanger: true,
	},
	models.RelationshipInactive: {
		allowed: map[models.RelationshipStatus]bool{
			models.RelationshipPending: true,
		},
	},
	models.RelationshipActive: {
		allowed: map[models.RelationshipStatus]bool{
			models.RelationshipInactive: true,
		},
	},
}

// checkTransition decides whether caller may move current to requested.
func checkTransition(current *models.Relationship, requested models.RelationshipStatus, caller string) error {
	if current.Status == requested {
		return fault.PermissionDenied("relationship %s is already %s", current.ID, requested)
	}

	rule, ok := transitions[current.Status]
	if !ok {
		return fault.Internal(errUnknownStatus, "relationship %s has status %q", current.ID, current.Status)
	}

	if rule.denyLastChanger && current.ChangedBy == caller {
		return fault.PermissionDenied("relationship %s is pending with the counterparty of %s", current.ID, caller)
	}

	if !rule.allowed[requested] {
		return fault.PermissionDenied("relationship %s cannot move from %s to %s", current.ID, current.Status, requested)
	}

	return nil
}
