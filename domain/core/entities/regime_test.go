package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "mirage-engine/pkg/errors"
)

func testClasses() []SocialClass {
	return []SocialClass{
		{Name: "gentry", WealthLevel: 0.8, PopulationRatio: 0.2, Influence: 0.7},
		{Name: "commons", WealthLevel: 0.3, PopulationRatio: 0.8, Influence: 0.2},
	}
}

func TestNewRegime_NormalizesPopulationRatios(t *testing.T) {
	regime, err := NewRegime("Duskfall", "oligarchy", []SocialClass{
		{Name: "gentry", PopulationRatio: 1},
		{Name: "commons", PopulationRatio: 3},
	})
	require.NoError(t, err)

	gentry, ok := regime.Class("gentry")
	require.True(t, ok)
	assert.InDelta(t, 0.25, gentry.PopulationRatio, 1e-9)
	assert.InDelta(t, 1.0, regime.PopulationRatioSum(), 1e-9)
	assert.Equal(t, 1, regime.Version())
}

func TestNewRegime_RejectsInvalidClasses(t *testing.T) {
	_, err := NewRegime("", "oligarchy", testClasses())
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewRegime("Duskfall", "oligarchy", nil)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewRegime("Duskfall", "oligarchy", []SocialClass{
		{Name: "gentry", PopulationRatio: 0.5},
		{Name: "gentry", PopulationRatio: 0.5},
	})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewRegime("Duskfall", "oligarchy", []SocialClass{
		{Name: "gentry", PopulationRatio: -0.1},
	})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestRegime_ApplyImpactClampsScalars(t *testing.T) {
	regime, err := NewRegime("Duskfall", "oligarchy", testClasses())
	require.NoError(t, err)

	require.NoError(t, regime.ApplyImpact(RegimeImpact{
		Satisfaction: 2.0,
		Corruption:   -5.0,
		Stability:    0.1,
	}))

	assert.Equal(t, 1.0, regime.Satisfaction())
	assert.Equal(t, 0.0, regime.Corruption())
	assert.InDelta(t, 0.7, regime.Stability(), 1e-9)
	assert.Equal(t, 2, regime.Version())
}

func TestRegime_ZeroImpactIsNoOp(t *testing.T) {
	regime, err := NewRegime("Duskfall", "oligarchy", testClasses())
	require.NoError(t, err)

	require.NoError(t, regime.ApplyImpact(RegimeImpact{}))
	assert.Equal(t, 1, regime.Version())
}

func TestRegime_PopulationShiftKeepsRatioSum(t *testing.T) {
	regime, err := NewRegime("Duskfall", "oligarchy", testClasses())
	require.NoError(t, err)

	require.NoError(t, regime.ApplyImpact(RegimeImpact{
		FromClass:       "commons",
		ToClass:         "gentry",
		PopulationShift: 0.1,
	}))

	gentry, _ := regime.Class("gentry")
	commons, _ := regime.Class("commons")
	assert.InDelta(t, 0.3, gentry.PopulationRatio, 1e-9)
	assert.InDelta(t, 0.7, commons.PopulationRatio, 1e-9)
	assert.InDelta(t, 1.0, regime.PopulationRatioSum(), 1e-9)
}

func TestRegime_PopulationShiftCapsAtSourceRatio(t *testing.T) {
	regime, err := NewRegime("Duskfall", "oligarchy", testClasses())
	require.NoError(t, err)

	// gentry holds only 0.2; asking for 0.5 drains it to zero.
	require.NoError(t, regime.ApplyImpact(RegimeImpact{
		FromClass:       "gentry",
		ToClass:         "commons",
		PopulationShift: 0.5,
	}))

	gentry, _ := regime.Class("gentry")
	commons, _ := regime.Class("commons")
	assert.InDelta(t, 0.0, gentry.PopulationRatio, 1e-9)
	assert.InDelta(t, 1.0, commons.PopulationRatio, 1e-9)
}

func TestRegime_NegativeShiftReversesDirection(t *testing.T) {
	regime, err := NewRegime("Duskfall", "oligarchy", testClasses())
	require.NoError(t, err)

	require.NoError(t, regime.ApplyImpact(RegimeImpact{
		FromClass:       "gentry",
		ToClass:         "commons",
		PopulationShift: -0.1,
	}))

	gentry, _ := regime.Class("gentry")
	assert.InDelta(t, 0.3, gentry.PopulationRatio, 1e-9)
}

func TestRegime_ShiftToUnknownClassFails(t *testing.T) {
	regime, err := NewRegime("Duskfall", "oligarchy", testClasses())
	require.NoError(t, err)

	err = regime.ApplyImpact(RegimeImpact{
		FromClass:       "gentry",
		ToClass:         "clergy",
		PopulationShift: 0.1,
	})
	assert.True(t, pkgerrors.IsValidation(err))
}
