package app

import (
	"time"

	"shared-kitchen/internal/auth"
	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/mutation"
	"shared-kitchen/internal/recipe"
)

// Phase is the authentication phase.
type Phase int

const (
	LoggedOut Phase = iota
	Authenticating
	SignedIn
)

// View is a top-level tab.
type View int

const (
	CalendarView View = iota
	StudioView
)

func (v View) String() string {
	if v == StudioView {
		return "studio"
	}
	return "calendar"
}

// Overlay suspends the view underneath without replacing it.
type Overlay int

const (
	NoOverlay Overlay = iota
	DetailOverlay
	AddMealOverlay
)

// State is everything one signed-in session shows. It is reset whenever the
// identity changes.
type State struct {
	Phase    Phase
	Identity *auth.Identity
	Token    string
	Notice   string

	View    View
	Overlay Overlay

	SelectedDate   time.Time
	SelectedRecipe *recipe.Recipe

	// Plans is the working set for the week; Favorites backs the studio list.
	Plans     []calendar.MealPlanEntry
	Favorites []recipe.Recipe

	// Add-meal modal.
	ModalRecipes []recipe.Recipe
	Search       string

	// Studio authoring sub-state.
	Authoring bool
	Draft     recipe.Draft

	LastOutcome *mutation.Outcome
}
