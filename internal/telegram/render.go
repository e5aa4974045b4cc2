package telegram

import (
	"fmt"
	"strings"
	"time"

	"shared-kitchen/internal/app"
	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/metrics"
	"shared-kitchen/internal/recipe"
	"shared-kitchen/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback actions. Callback data is "action|arg" and limited to 64 bytes,
// which fits a UUID argument.
const (
	actSignIn  = "signin"
	actSignOut = "signout"
	actView    = "view"
	actDay     = "day"
	actToggle  = "toggle"
	actMeal    = "meal"
	actAdd     = "add"
	actPick    = "pick"
	actCreate  = "create"
	actClose   = "close"
	actRecipe  = "recipe"
	actNew     = "new"
	actSave    = "save"
	actCancel  = "cancel"
)

const dayArgLayout = "2006-01-02"

// screen is one rendered message with its keyboard.
type screen struct {
	Text     string
	Keyboard tgbotapi.InlineKeyboardMarkup
}

func button(label, action, arg string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, action+"|"+arg)
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// render draws whatever the controller is currently showing.
func render(c *app.Controller) screen {
	s := c.State()
	if s.Phase != app.SignedIn {
		return renderLoggedOut(s)
	}
	switch s.Overlay {
	case app.DetailOverlay:
		return renderDetail(*s.SelectedRecipe)
	case app.AddMealOverlay:
		return renderAddMeal(s.SelectedDate, s.Search, c.ModalResults())
	}
	if s.View == app.StudioView {
		if s.Authoring {
			return renderDraft(s.Draft, s.Notice)
		}
		return renderStudio(c.Greeting(), s.Favorites)
	}
	return renderCalendar(c.Greeting(), c.WeekDays(), s.SelectedDate, c.IsTodaySelected(), c.DayPlan())
}

func renderLoggedOut(s app.State) screen {
	var sb strings.Builder
	sb.WriteString("🍽 *Shared Kitchen*\n\n")
	if s.Notice != "" {
		sb.WriteString(fmt.Sprintf("⛔ %s\n\n", esc(s.Notice)))
	}
	sb.WriteString("Sign in to see the household calendar.")

	return screen{
		Text: sb.String(),
		Keyboard: tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(button("🔑 Sign in", actSignIn, "")),
		),
	}
}

func navRow(current app.View) []tgbotapi.InlineKeyboardButton {
	cal, studio := "📅 Calendar", "📚 Recipes"
	if current == app.CalendarView {
		cal = "• " + cal
	} else {
		studio = "• " + studio
	}
	return tgbotapi.NewInlineKeyboardRow(
		button(cal, actView, app.CalendarView.String()),
		button(studio, actView, app.StudioView.String()),
		button("🚪", actSignOut, ""),
	)
}

func dayHeading(day time.Time, today bool) string {
	if today {
		return "Today's Menu"
	}
	return day.Format("Monday, Jan 2")
}

func renderCalendar(greeting string, days []time.Time, selected time.Time, today bool, plan []calendar.MealPlanEntry) screen {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👋 *%s*\n\n", esc(greeting)))
	sb.WriteString(fmt.Sprintf("📅 *%s*\n", dayHeading(selected, today)))
	if len(plan) == 0 {
		sb.WriteString("_Nothing planned yet._\n")
	}
	for _, e := range plan {
		mark := "⬜"
		if e.WasCooked {
			mark = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s\n", mark, esc(e.MealType), esc(e.Title)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var strip []tgbotapi.InlineKeyboardButton
	for i, d := range days {
		label := d.Format("Mon 2")
		if calendar.SameDay(d, selected) {
			label = "• " + label
		}
		strip = append(strip, button(label, actDay, d.Format(dayArgLayout)))
		if len(strip) == 4 || i == len(days)-1 {
			rows = append(rows, strip)
			strip = nil
		}
	}
	for _, e := range plan {
		mark := "⬜"
		if e.WasCooked {
			mark = "✅"
		}
		row := tgbotapi.NewInlineKeyboardRow(button(mark+" "+e.Title, actToggle, e.ID))
		if e.HasRecipe() {
			row = append(row, button("📖", actMeal, e.ID))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("➕ Add meal", actAdd, "")))
	rows = append(rows, navRow(app.CalendarView))

	return screen{Text: sb.String(), Keyboard: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func renderStudio(greeting string, favorites []recipe.Recipe) screen {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👋 *%s*\n\n", esc(greeting)))
	sb.WriteString("📚 *Recipe Box*\n")
	if len(favorites) == 0 {
		sb.WriteString("_No favorites yet._\n")
	} else {
		sb.WriteString(fmt.Sprintf("%d favorites\n", len(favorites)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range favorites {
		label := fmt.Sprintf("⭐ %s (%d min)", r.Title, r.DisplayTime())
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, actRecipe, r.ID)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("✏️ New recipe", actNew, "")))
	rows = append(rows, navRow(app.StudioView))

	return screen{Text: sb.String(), Keyboard: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func renderDraft(d recipe.Draft, notice string) screen {
	var sb strings.Builder
	sb.WriteString("✏️ *New Recipe*\n\n")
	if d.Title == "" {
		sb.WriteString("*Title:* _not set_\n")
	} else {
		sb.WriteString(fmt.Sprintf("*Title:* %s\n", esc(d.Title)))
	}

	sb.WriteString("\n*Ingredients*\n")
	if len(d.Ingredients) == 0 {
		sb.WriteString("_none yet_\n")
	}
	for _, ing := range d.Ingredients {
		sb.WriteString(fmt.Sprintf("• %s\n", esc(ing.Item)))
	}

	sb.WriteString("\n*Instructions*\n")
	if strings.TrimSpace(d.Instructions) == "" {
		sb.WriteString("_none yet_\n")
	} else {
		sb.WriteString(esc(d.Instructions) + "\n")
	}

	sb.WriteString("\nSend /title, /ingredients (one per line) or /instructions followed by the text, or paste a recipe link to import it.")
	if notice != "" {
		sb.WriteString(fmt.Sprintf("\n\n⚠️ %s", esc(notice)))
	}

	return screen{
		Text: sb.String(),
		Keyboard: tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				button("💾 Save", actSave, ""),
				button("✖️ Cancel", actCancel, ""),
			),
		),
	}
}

func renderDetail(r recipe.Recipe) screen {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📖 *%s*\n", esc(r.Title)))
	sb.WriteString(fmt.Sprintf("⏱ %d min\n\n", r.DisplayTime()))

	sb.WriteString("*Ingredients*\n")
	if len(r.Ingredients) == 0 {
		sb.WriteString("_none listed_\n")
	}
	for _, ing := range r.Ingredients {
		sb.WriteString(fmt.Sprintf("• %s\n", esc(ing)))
	}

	sb.WriteString("\n*Instructions*\n")
	sb.WriteString(esc(r.DisplayInstructions()))
	if r.SourceURL != "" {
		sb.WriteString(fmt.Sprintf("\n\n🔗 %s", r.SourceURL))
	}

	return screen{
		Text: sb.String(),
		Keyboard: tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(button("⬅️ Back", actClose, "")),
		),
	}
}

func renderAddMeal(day time.Time, search string, results []recipe.Recipe) screen {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("➕ *Add a meal for %s*\n\n", day.Format("Monday, Jan 2")))
	if search != "" {
		sb.WriteString(fmt.Sprintf("🔍 Search: %s\n", esc(search)))
	}
	if len(results) == 0 {
		sb.WriteString("_No recipes found._\n")
	}
	sb.WriteString("Send any text to filter by title.")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range results {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(r.Title, actPick, r.ID)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("✨ Create new", actCreate, ""),
		button("✖️ Close", actClose, ""),
	))

	return screen{Text: sb.String(), Keyboard: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func formatStatusReport(summary []metrics.MutationCount, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Writes since start*\n")
	if len(summary) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, m := range summary {
		sb.WriteString(fmt.Sprintf("• *%s* %s: %d\n", m.Kind, strings.ReplaceAll(m.Outcome, "_", " "), m.Count))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %s (Alloc) / %s (Sys)\n", health.Alloc, health.Sys))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• GC runs: %d\n", health.NumGC))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Database: %s\n", health.DBSize))
	return sb.String()
}

func formatShoppingList(list shopping.List) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *Shopping List* (week of %s)\n\n", list.WeekStart.Format("Jan 2")))
	if len(list.Items) == 0 {
		sb.WriteString("_Nothing to buy._\n")
	}
	for _, item := range list.Items {
		sb.WriteString(fmt.Sprintf("• %s _(%s)_\n", esc(item.Name), esc(strings.Join(item.Meals, ", "))))
	}
	if list.Unlinked > 0 {
		sb.WriteString(fmt.Sprintf("\n_%d planned meals have no recipe._\n", list.Unlinked))
	}
	return sb.String()
}
