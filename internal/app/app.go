// Package app holds the view state machine: which tab is showing, which
// overlay sits on top of it, and the working sets the tabs display.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"shared-kitchen/internal/auth"
	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/docstore"
	"shared-kitchen/internal/metrics"
	"shared-kitchen/internal/mutation"
	"shared-kitchen/internal/recipe"
)

// DeniedNotice is shown after an allow-list or provider rejection.
const DeniedNotice = "Access denied: You are not on the guest list."

var (
	ErrSignedOut         = errors.New("not signed in")
	ErrOverlayActive     = errors.New("close the open overlay first")
	ErrWrongView         = errors.New("action not available in this view")
	ErrDateOutOfRange    = errors.New("date is not in this week")
	ErrUnknownMeal       = errors.New("meal is not in this week's plan")
	ErrUnknownRecipe     = errors.New("recipe is not in the list")
	ErrNotAuthoring      = errors.New("not editing a recipe")
	ErrImportUnavailable = errors.New("recipe import is not configured")
)

// MealReader loads the calendar.
type MealReader interface {
	GetWeeklyPlan(ctx context.Context, start time.Time) ([]calendar.MealPlanEntry, error)
}

// RecipeReader loads the recipe box.
type RecipeReader interface {
	GetFavoriteRecipes(ctx context.Context) ([]recipe.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error)
}

// DraftImporter fills a draft from a web page.
type DraftImporter interface {
	Import(ctx context.Context, url string) (recipe.Draft, error)
}

// Deps wires a Controller.
type Deps struct {
	Gate        *auth.Gate
	Meals       MealReader
	Recipes     RecipeReader
	Coordinator *mutation.Coordinator
	Importer    DraftImporter     // optional
	Metrics     *metrics.Recorder // optional
	// Clock returns the current time in the household's location.
	Clock func() time.Time
}

// Controller applies transitions to one session's State. It is not safe for
// concurrent use; callers serialise access.
type Controller struct {
	deps  Deps
	state State
}

// NewController creates a signed-out Controller.
func NewController(d Deps) *Controller {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Controller{deps: d}
}

// State returns the current state. Slices are shared; treat them as read-only.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) today() time.Time {
	return calendar.StartOfDay(c.deps.Clock())
}

// --- Authentication ---

// SignIn runs the provider through the allow-list gate. On success the
// session starts on the calendar with today selected.
func (c *Controller) SignIn(ctx context.Context, p auth.Provider) error {
	if c.state.Phase == SignedIn {
		return nil
	}
	c.state = State{Phase: Authenticating}

	id, token, err := c.deps.Gate.SignIn(ctx, p)
	if err != nil {
		c.state = State{Phase: LoggedOut, Notice: noticeFor(err)}
		return err
	}
	c.establish(ctx, id, token)
	return nil
}

// Resume restores a session from a token issued by an earlier SignIn.
func (c *Controller) Resume(ctx context.Context, token string) error {
	id, err := c.deps.Gate.Resume(token)
	if err != nil {
		c.state = State{Phase: LoggedOut, Notice: noticeFor(err)}
		return err
	}
	if c.state.Phase == SignedIn && c.state.Identity != nil && strings.EqualFold(c.state.Identity.Email, id.Email) {
		return nil
	}
	c.establish(ctx, id, token)
	return nil
}

// SignOut drops the whole session state.
func (c *Controller) SignOut() {
	c.state = State{Phase: LoggedOut}
}

func (c *Controller) establish(ctx context.Context, id auth.Identity, token string) {
	c.state = State{
		Phase:        SignedIn,
		Identity:     &id,
		Token:        token,
		View:         CalendarView,
		SelectedDate: c.today(),
	}
	c.reload(ctx)
}

func noticeFor(err error) string {
	if errors.Is(err, auth.ErrAuthCancelled) {
		return "Sign-in cancelled."
	}
	return DeniedNotice
}

// Greeting is the header line for a signed-in session.
func (c *Controller) Greeting() string {
	if c.state.Identity == nil {
		return ""
	}
	return fmt.Sprintf("Hi, %s", c.state.Identity.FirstName())
}

// --- Loading ---

// reload refreshes both lists from the store.
func (c *Controller) reload(ctx context.Context) {
	c.loadPlans(ctx)
	c.loadFavorites(ctx)
}

// loadPlans replaces the working set with the store's week. A failed read
// leaves an empty week rather than an error state.
func (c *Controller) loadPlans(ctx context.Context) {
	plans, err := c.deps.Meals.GetWeeklyPlan(ctx, c.today())
	c.deps.Metrics.RecordLoad(docstore.CalendarCollection, err)
	if err != nil {
		log.Printf("Error loading plans: %v", err)
		plans = nil
	}
	c.state.Plans = plans
}

func (c *Controller) loadFavorites(ctx context.Context) {
	favs, err := c.deps.Recipes.GetFavoriteRecipes(ctx)
	c.deps.Metrics.RecordLoad(docstore.RecipesCollection, err)
	if err != nil {
		log.Printf("Error loading recipes: %v", err)
		favs = nil
	}
	c.state.Favorites = favs
}

// --- Guards ---

func (c *Controller) requireBase() error {
	if c.state.Phase != SignedIn {
		return ErrSignedOut
	}
	if c.state.Overlay != NoOverlay {
		return ErrOverlayActive
	}
	return nil
}

func (c *Controller) requireView(v View) error {
	if err := c.requireBase(); err != nil {
		return err
	}
	if c.state.View != v {
		return ErrWrongView
	}
	return nil
}

func (c *Controller) requireOverlay(o Overlay) error {
	if c.state.Phase != SignedIn {
		return ErrSignedOut
	}
	if c.state.Overlay != o {
		return ErrWrongView
	}
	return nil
}

// --- Top-level views ---

// SwitchView changes tab. Changing tab is the only refresh trigger: both
// lists are reloaded in full.
func (c *Controller) SwitchView(ctx context.Context, v View) error {
	if err := c.requireBase(); err != nil {
		return err
	}
	if c.state.View == v {
		return nil
	}
	c.state.View = v
	c.state.Authoring = false
	c.state.Draft = recipe.Draft{}
	c.state.Notice = ""
	c.reload(ctx)
	return nil
}

// --- Calendar view ---

// WeekDays is the strip of selectable days.
func (c *Controller) WeekDays() []time.Time {
	return calendar.WeekDays(c.deps.Clock())
}

// SelectDate picks a day from the week strip.
func (c *Controller) SelectDate(day time.Time) error {
	if err := c.requireView(CalendarView); err != nil {
		return err
	}
	for _, d := range c.WeekDays() {
		if calendar.SameDay(d, day) {
			c.state.SelectedDate = d
			return nil
		}
	}
	return ErrDateOutOfRange
}

// IsTodaySelected reports whether the selected day is today.
func (c *Controller) IsTodaySelected() bool {
	return calendar.SameDay(c.today(), c.state.SelectedDate)
}

// DayPlan is the selected day's meals.
func (c *Controller) DayPlan() []calendar.MealPlanEntry {
	return calendar.DayPlan(c.state.Plans, c.state.SelectedDate)
}

// ToggleCooked flips a meal's cooked flag optimistically. When the store
// rejects the write the whole week is reloaded.
func (c *Controller) ToggleCooked(ctx context.Context, mealID string) (mutation.Outcome, error) {
	if err := c.requireView(CalendarView); err != nil {
		return mutation.Outcome{}, err
	}
	out := c.deps.Coordinator.ToggleCooked(ctx, c.state.Plans, mealID)
	c.state.LastOutcome = &out
	if !out.Committed() {
		c.loadPlans(ctx)
	}
	return out, nil
}

// OpenMealDetail shows the recipe behind a scheduled meal. Meals without a
// recipe, or whose recipe no longer resolves, do not open.
func (c *Controller) OpenMealDetail(ctx context.Context, mealID string) error {
	if err := c.requireView(CalendarView); err != nil {
		return err
	}
	var entry *calendar.MealPlanEntry
	for i := range c.state.Plans {
		if c.state.Plans[i].ID == mealID {
			entry = &c.state.Plans[i]
			break
		}
	}
	if entry == nil {
		return ErrUnknownMeal
	}
	if !entry.HasRecipe() {
		return nil
	}

	rec, err := c.deps.Recipes.GetRecipe(ctx, entry.RecipeID)
	if err != nil {
		log.Printf("Failed to load recipe detail: %v", err)
		return nil
	}
	if rec == nil {
		return nil
	}
	c.state.SelectedRecipe = rec
	c.state.Overlay = DetailOverlay
	return nil
}

// OpenAddMeal shows the add-meal modal for the selected day and loads the
// favorites it offers.
func (c *Controller) OpenAddMeal(ctx context.Context) error {
	if err := c.requireView(CalendarView); err != nil {
		return err
	}
	c.state.Overlay = AddMealOverlay
	c.state.Search = ""

	favs, err := c.deps.Recipes.GetFavoriteRecipes(ctx)
	c.deps.Metrics.RecordLoad(docstore.RecipesCollection, err)
	if err != nil {
		log.Printf("Error loading recipes: %v", err)
		favs = nil
	}
	c.state.ModalRecipes = favs
	return nil
}

// SetSearch filters the modal's recipes.
func (c *Controller) SetSearch(q string) error {
	if err := c.requireOverlay(AddMealOverlay); err != nil {
		return err
	}
	c.state.Search = q
	return nil
}

// ModalResults is the modal list after the search filter.
func (c *Controller) ModalResults() []recipe.Recipe {
	return recipe.SearchTitles(c.state.ModalRecipes, c.state.Search)
}

// AddMeal schedules a recipe from the modal on the selected day. The modal
// closes only when the store accepted the meal.
func (c *Controller) AddMeal(ctx context.Context, recipeID string) (mutation.Outcome, error) {
	if err := c.requireOverlay(AddMealOverlay); err != nil {
		return mutation.Outcome{}, err
	}
	var rec *recipe.Recipe
	for i := range c.state.ModalRecipes {
		if c.state.ModalRecipes[i].ID == recipeID {
			rec = &c.state.ModalRecipes[i]
			break
		}
	}
	if rec == nil {
		return mutation.Outcome{}, ErrUnknownRecipe
	}

	_, out := c.deps.Coordinator.ScheduleMeal(ctx, &c.state.Plans, *rec, c.state.SelectedDate)
	c.state.LastOutcome = &out
	if out.Committed() {
		c.closeAddMeal()
	}
	return out, nil
}

// CloseAddMeal dismisses the modal. An insert already issued is not aborted.
func (c *Controller) CloseAddMeal() error {
	if err := c.requireOverlay(AddMealOverlay); err != nil {
		return err
	}
	c.closeAddMeal()
	return nil
}

func (c *Controller) closeAddMeal() {
	c.state.Overlay = NoOverlay
	c.state.ModalRecipes = nil
	c.state.Search = ""
}

// CreateFromModal leaves the modal for the recipe studio.
func (c *Controller) CreateFromModal(ctx context.Context) error {
	if err := c.requireOverlay(AddMealOverlay); err != nil {
		return err
	}
	c.closeAddMeal()
	return c.SwitchView(ctx, StudioView)
}

// --- Recipe detail ---

// OpenRecipe shows a recipe from the studio list.
func (c *Controller) OpenRecipe(recipeID string) error {
	if err := c.requireView(StudioView); err != nil {
		return err
	}
	if c.state.Authoring {
		return ErrWrongView
	}
	for i := range c.state.Favorites {
		if c.state.Favorites[i].ID == recipeID {
			rec := c.state.Favorites[i]
			c.state.SelectedRecipe = &rec
			c.state.Overlay = DetailOverlay
			return nil
		}
	}
	return ErrUnknownRecipe
}

// CloseDetail returns to whatever the detail overlay was opened from.
func (c *Controller) CloseDetail() error {
	if err := c.requireOverlay(DetailOverlay); err != nil {
		return err
	}
	c.state.Overlay = NoOverlay
	c.state.SelectedRecipe = nil
	return nil
}

// --- Studio authoring ---

// StartAuthoring opens an empty draft in the studio.
func (c *Controller) StartAuthoring() error {
	if err := c.requireView(StudioView); err != nil {
		return err
	}
	c.state.Authoring = true
	c.state.Draft = recipe.Draft{}
	return nil
}

// CancelAuthoring discards the draft and returns to the recipe list.
func (c *Controller) CancelAuthoring() error {
	if err := c.requireAuthoring(); err != nil {
		return err
	}
	c.state.Authoring = false
	c.state.Draft = recipe.Draft{}
	return nil
}

func (c *Controller) requireAuthoring() error {
	if err := c.requireView(StudioView); err != nil {
		return err
	}
	if !c.state.Authoring {
		return ErrNotAuthoring
	}
	return nil
}

// SetDraftTitle names the draft.
func (c *Controller) SetDraftTitle(title string) error {
	if err := c.requireAuthoring(); err != nil {
		return err
	}
	c.state.Draft.Title = strings.TrimSpace(title)
	return nil
}

// SmartPaste parses pasted ingredient lines into the draft.
func (c *Controller) SmartPaste(text string) error {
	if err := c.requireAuthoring(); err != nil {
		return err
	}
	c.state.Draft.SmartPaste(text)
	return nil
}

// SetDraftInstructions sets the draft's instructions.
func (c *Controller) SetDraftInstructions(text string) error {
	if err := c.requireAuthoring(); err != nil {
		return err
	}
	c.state.Draft.Instructions = text
	return nil
}

// ImportDraft replaces the draft with a recipe read from url.
func (c *Controller) ImportDraft(ctx context.Context, url string) error {
	if err := c.requireAuthoring(); err != nil {
		return err
	}
	if c.deps.Importer == nil {
		return ErrImportUnavailable
	}
	d, err := c.deps.Importer.Import(ctx, url)
	if err != nil {
		log.Printf("Error importing recipe from %s: %v", url, err)
		return err
	}
	c.state.Draft = d
	return nil
}

// SaveDraft stores the draft as a favorite and reloads the list from the
// store. A failed save keeps the draft open and is only logged.
func (c *Controller) SaveDraft(ctx context.Context) (mutation.Outcome, error) {
	if err := c.requireAuthoring(); err != nil {
		return mutation.Outcome{}, err
	}
	if strings.TrimSpace(c.state.Draft.Title) == "" {
		c.state.Notice = "Please enter a title"
		return mutation.Outcome{}, recipe.ErrTitleRequired
	}

	_, out := c.deps.Coordinator.SaveRecipe(ctx, c.state.Draft)
	c.state.LastOutcome = &out
	if out.Committed() {
		c.state.Authoring = false
		c.state.Draft = recipe.Draft{}
		c.state.Notice = ""
		c.loadFavorites(ctx)
	}
	return out, nil
}
