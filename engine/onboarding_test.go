package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardStepGates(t *testing.T) {
	w := NewWizard()
	assert.Equal(t, StepBasics, w.Step())
	assert.False(t, w.CanProceed())

	// Incomplete basics keep the gate shut.
	w.SetBasics("Alice", 0, "Helsinki", "")
	assert.False(t, w.CanProceed())
	w.SetBasics("  ", 29, "Helsinki", "")
	assert.False(t, w.CanProceed())
	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	assert.Equal(t, StepBasics, w.Step())

	w.SetBasics("Alice", 29, "Helsinki", "Always hungry.")
	assert.True(t, w.CanProceed())
	require.NoError(t, w.Next())
	assert.Equal(t, StepCuisines, w.Step())

	// At least one cuisine pick is required.
	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	require.NoError(t, w.ToggleCuisine("Italian"))
	require.NoError(t, w.Next())
	assert.Equal(t, StepDiningStyles, w.Step())

	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	require.NoError(t, w.ToggleDiningStyle("Street Food"))
	require.NoError(t, w.Next())
	assert.Equal(t, StepDietary, w.Step())

	// Dietary tags are optional: the last step always passes.
	assert.True(t, w.CanProceed())
}

func TestWizardBackIsNeverGated(t *testing.T) {
	w := NewWizard()
	w.SetBasics("Alice", 29, "Helsinki", "")
	require.NoError(t, w.Next())

	// Back works even with the current step incomplete, and stops at the
	// first step.
	w.Back()
	assert.Equal(t, StepBasics, w.Step())
	w.Back()
	assert.Equal(t, StepBasics, w.Step())
}

func TestWizardToggle(t *testing.T) {
	w := NewWizard()

	require.NoError(t, w.ToggleCuisine("Thai"))
	require.NoError(t, w.ToggleCuisine("Italian"))
	assert.Equal(t, []string{"Thai", "Italian"}, w.Form().FavoriteCuisines)

	// Toggling again removes, case-insensitively.
	require.NoError(t, w.ToggleCuisine("thai"))
	assert.Equal(t, []string{"Italian"}, w.Form().FavoriteCuisines)

	err := w.ToggleCuisine("Klingon")
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Equal(t, []string{"Italian"}, w.Form().FavoriteCuisines)

	assert.ErrorIs(t, w.ToggleDiningStyle("Drive-Through"), ErrUnknownOption)
	assert.ErrorIs(t, w.ToggleDietary("Carnivore"), ErrUnknownOption)
}

func TestWizardComplete(t *testing.T) {
	w := NewWizard()
	w.SetBasics("Alice", 29, "Helsinki", "Always hungry.")
	require.NoError(t, w.ToggleCuisine("Italian"))
	require.NoError(t, w.ToggleDiningStyle("Wine Bars"))
	require.NoError(t, w.ToggleDietary("Vegetarian"))

	profile, err := w.Complete(7)
	require.NoError(t, err)
	assert.Equal(t, 7, profile.ID)
	assert.Equal(t, "Alice", profile.FullName)
	assert.Equal(t, 29, profile.Age)
	assert.Equal(t, []string{"Italian"}, profile.FavoriteCuisines)
	assert.Equal(t, []string{"Wine Bars"}, profile.DiningStyles)
	assert.Equal(t, []string{"Vegetarian"}, profile.DietaryTags)
}

func TestWizardCompleteRejectsIncompleteForm(t *testing.T) {
	w := NewWizard()
	w.SetBasics("Alice", 29, "Helsinki", "")
	require.NoError(t, w.ToggleCuisine("Italian"))
	// Dining styles never picked.

	_, err := w.Complete(7)
	assert.ErrorIs(t, err, ErrStepIncomplete)
}

func TestValidateForm(t *testing.T) {
	valid := WizardForm{
		FullName:         "Alice",
		Age:              29,
		Location:         "Helsinki",
		FavoriteCuisines: []string{"Italian"},
		DiningStyles:     []string{"Street Food"},
	}
	assert.NoError(t, ValidateForm(valid))

	noAge := valid
	noAge.Age = 0
	assert.ErrorIs(t, ValidateForm(noAge), ErrStepIncomplete)

	badTag := valid
	badTag.DietaryTags = []string{"Carnivore"}
	assert.ErrorIs(t, ValidateForm(badTag), ErrUnknownOption)

	// Catalog matching is case-insensitive.
	folded := valid
	folded.FavoriteCuisines = []string{"iTaLiAn"}
	assert.NoError(t, ValidateForm(folded))
}
