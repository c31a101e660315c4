package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Profile-setup wizard: a step-gated finite-state machine. Each step's
// "can proceed" predicate is a pure function of the accumulated form state,
// never of UI flags.

// WizardStep identifies one page of the profile setup flow.
type WizardStep int

const (
	StepBasics WizardStep = iota + 1
	StepCuisines
	StepDiningStyles
	StepDietary
)

func (s WizardStep) String() string {
	switch s {
	case StepBasics:
		return "basics"
	case StepCuisines:
		return "cuisines"
	case StepDiningStyles:
		return "dining_styles"
	case StepDietary:
		return "dietary"
	}
	return "unknown"
}

// Pick lists the wizard offers. Toggles validate against these so a profile
// never carries a tag the matching side has no vocabulary for.
var (
	CuisineOptions = []string{
		"Italian", "Asian", "Mexican", "Mediterranean", "American", "French",
		"Indian", "Thai", "Japanese", "Chinese", "Korean", "Vietnamese",
		"Greek", "Spanish", "Lebanese", "Turkish", "Moroccan", "Ethiopian",
	}
	DiningStyleOptions = []string{
		"Fine Dining", "Casual Dining", "Street Food", "Food Trucks",
		"Brunch Spots", "Coffee Shops", "Wine Bars", "Rooftop Dining",
		"Outdoor Seating", "Cozy Atmosphere", "Trendy Spots", "Local Gems",
	}
	DietaryOptions = []string{
		"Vegetarian", "Vegan", "Gluten-Free", "Keto", "Paleo", "Halal",
		"Kosher", "Dairy-Free", "Nut-Free", "Low-Carb", "Organic", "Raw Food",
	}
)

var (
	ErrStepIncomplete = errors.New("current step incomplete")
	ErrUnknownOption  = errors.New("unknown option")
)

// WizardForm is the accumulated form state across all steps.
type WizardForm struct {
	FullName         string   `json:"full_name"`
	Age              int      `json:"age"`
	Bio              string   `json:"bio"`
	Location         string   `json:"location"`
	AvatarURL        string   `json:"avatar_url"`
	FavoriteCuisines []string `json:"favorite_cuisines"`
	DiningStyles     []string `json:"dining_styles"`
	DietaryTags      []string `json:"dietary_tags"`
}

// StepComplete is the per-step gate: basics need name, a positive age and a
// location; the cuisine and dining-style steps each need at least one pick;
// dietary tags are optional.
func StepComplete(step WizardStep, form WizardForm) bool {
	switch step {
	case StepBasics:
		return strings.TrimSpace(form.FullName) != "" &&
			form.Age > 0 &&
			strings.TrimSpace(form.Location) != ""
	case StepCuisines:
		return len(form.FavoriteCuisines) > 0
	case StepDiningStyles:
		return len(form.DiningStyles) > 0
	case StepDietary:
		return true
	}
	return false
}

// ValidateForm checks the whole form against every step's gate, for callers
// that receive the form in one request rather than walking the wizard.
func ValidateForm(form WizardForm) error {
	for step := StepBasics; step <= StepDietary; step++ {
		if !StepComplete(step, form) {
			return fmt.Errorf("%w: %s", ErrStepIncomplete, step)
		}
	}
	if err := optionsKnown(form.FavoriteCuisines, CuisineOptions); err != nil {
		return err
	}
	if err := optionsKnown(form.DiningStyles, DiningStyleOptions); err != nil {
		return err
	}
	return optionsKnown(form.DietaryTags, DietaryOptions)
}

func optionsKnown(picked, catalog []string) error {
	for _, p := range picked {
		found := false
		for _, opt := range catalog {
			if strings.EqualFold(p, opt) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrUnknownOption, p)
		}
	}
	return nil
}

// Wizard walks a user through the four setup steps.
type Wizard struct {
	step WizardStep
	form WizardForm
}

func NewWizard() *Wizard {
	return &Wizard{step: StepBasics}
}

func (w *Wizard) Step() WizardStep { return w.step }
func (w *Wizard) Form() WizardForm { return w.form }

// SetBasics fills the first step's fields.
func (w *Wizard) SetBasics(fullName string, age int, location, bio string) {
	w.form.FullName = fullName
	w.form.Age = age
	w.form.Location = location
	w.form.Bio = bio
}

// ToggleCuisine adds or removes a cuisine pick.
func (w *Wizard) ToggleCuisine(name string) error {
	return toggle(&w.form.FavoriteCuisines, name, CuisineOptions)
}

// ToggleDiningStyle adds or removes a dining-style pick.
func (w *Wizard) ToggleDiningStyle(name string) error {
	return toggle(&w.form.DiningStyles, name, DiningStyleOptions)
}

// ToggleDietary adds or removes a dietary tag.
func (w *Wizard) ToggleDietary(name string) error {
	return toggle(&w.form.DietaryTags, name, DietaryOptions)
}

func toggle(picked *[]string, name string, catalog []string) error {
	if err := optionsKnown([]string{name}, catalog); err != nil {
		return err
	}
	for i, p := range *picked {
		if strings.EqualFold(p, name) {
			*picked = append((*picked)[:i], (*picked)[i+1:]...)
			return nil
		}
	}
	*picked = append(*picked, name)
	return nil
}

// CanProceed reports whether the current step's gate passes.
func (w *Wizard) CanProceed() bool {
	return StepComplete(w.step, w.form)
}

// Next advances to the following step, guarded by the current step's gate.
func (w *Wizard) Next() error {
	if !w.CanProceed() {
		return fmt.Errorf("%w: %s", ErrStepIncomplete, w.step)
	}
	if w.step < StepDietary {
		w.step++
	}
	return nil
}

// Back returns to the previous step; going back is never gated.
func (w *Wizard) Back() {
	if w.step > StepBasics {
		w.step--
	}
}

// Complete validates the full form and yields the profile to upsert.
func (w *Wizard) Complete(userID int) (*Profile, error) {
	if err := ValidateForm(w.form); err != nil {
		return nil, err
	}
	return &Profile{
		ID:               userID,
		FullName:         w.form.FullName,
		Age:              w.form.Age,
		Bio:              w.form.Bio,
		Location:         w.form.Location,
		AvatarURL:        w.form.AvatarURL,
		FavoriteCuisines: w.form.FavoriteCuisines,
		DiningStyles:     w.form.DiningStyles,
		DietaryTags:      w.form.DietaryTags,
	}, nil
}
