package investigation

import (
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
)

type actor int

const (
	// the participant changing its own status
	actorSelf actor = iota
	// the creator sharing secret2
	actorCreator
)

type transition struct {
	from models.ParticipantStatus
	to   models.ParticipantStatus
}

// allowedTransitions maps each permitted participant transition to the actor
// who may perform it. REJECTED and ACTIVE are terminal.
var allowedTransitions = map[transition]actor{
	{models.ParticipantPending, models.ParticipantApproved}:  actorSelf,
	{models.ParticipantPending, models.ParticipantRejected}:  actorSelf,
	{models.ParticipantApproved, models.ParticipantRejected}: actorSelf,
	{models.ParticipantPending, models.ParticipantActive}:    actorCreator,
	{models.ParticipantApproved, models.ParticipantActive}:   actorCreator,
}

func checkTransition(from, to models.ParticipantStatus, by actor) error {
	who, ok := allowedTransitions[transition{from, to}]
	if !ok || who != by {
		return fault.PermissionDenied("participant cannot move from %s to %s", from, to)
	}
	return nil
}
