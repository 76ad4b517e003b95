package validators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

func validNodeDraft() NodeDraft {
	return NodeDraft{
		CharacterID: valueobjects.NewCharacterID(),
		EventName:   "betrayal at court",
		EventType:   "social",
		ImpactLevel: -2.5,
		Probability: 0.8,
		Tags:        []string{"betrayal", "court"},
		Timestamp:   time.Now(),
	}
}

func validEventDraft() EventDraft {
	return EventDraft{
		ActorID:     valueobjects.NewCharacterID(),
		Action:      "deceive",
		ImpactScore: 1.5,
		Timestamp:   time.Now(),
	}
}

func TestEventValidator_ValidNodeDraftBuilds(t *testing.T) {
	v := NewEventValidator(nil)

	node, err := v.BuildNode(validNodeDraft())
	require.NoError(t, err)
	assert.Equal(t, "betrayal at court", node.EventName())
	assert.ElementsMatch(t, []string{"betrayal", "court"}, node.Tags())
}

func TestEventValidator_NodeDraftFailuresAreCollected(t *testing.T) {
	v := NewEventValidator(nil)

	draft := validNodeDraft()
	draft.EventName = ""
	draft.EventType = "cosmic"
	draft.Probability = 1.5

	err := v.ValidateNodeDraft(draft)
	require.Error(t, err)

	var verrs *pkgerrors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 3)
}

func TestEventValidator_NodeDraftRejectsNonFiniteImpact(t *testing.T) {
	v := NewEventValidator(nil)

	draft := validNodeDraft()
	draft.ImpactLevel = math.NaN()
	assert.Error(t, v.ValidateNodeDraft(draft))

	draft = validNodeDraft()
	draft.Consequence.FateDelta = math.Inf(1)
	assert.Error(t, v.ValidateNodeDraft(draft))
}

func TestEventValidator_NodeDraftTagLimits(t *testing.T) {
	v := NewEventValidator(nil)

	draft := validNodeDraft()
	for i := 0; i < 25; i++ {
		draft.Tags = append(draft.Tags, "t")
	}
	assert.Error(t, v.ValidateNodeDraft(draft))

	draft = validNodeDraft()
	draft.Tags = []string{"   "}
	assert.Error(t, v.ValidateNodeDraft(draft))
}

func TestEventValidator_EventDraftSelfTargetRejected(t *testing.T) {
	v := NewEventValidator(nil)

	draft := validEventDraft()
	actor := draft.ActorID
	draft.TargetID = &actor
	err := v.ValidateEventDraft(draft)
	require.Error(t, err)
}

func TestEventValidator_EventDraftBuildsWithOptionalFields(t *testing.T) {
	v := NewEventValidator(nil)

	draft := validEventDraft()
	draft.Location = "the old bridge"
	draft.Duration = 3 * time.Minute

	evt, err := v.BuildEvent(draft)
	require.NoError(t, err)
	assert.Equal(t, "the old bridge", evt.Location())
	assert.Equal(t, 3*time.Minute, evt.Duration())
	assert.True(t, evt.IsPublic())
}

func TestEventValidator_EventDraftRejectsMissingAction(t *testing.T) {
	v := NewEventValidator(nil)

	draft := validEventDraft()
	draft.Action = ""
	assert.Error(t, v.ValidateEventDraft(draft))

	draft = validEventDraft()
	draft.ActorID = valueobjects.CharacterID{}
	assert.Error(t, v.ValidateEventDraft(draft))
}
