package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"shared-kitchen/internal/app"
	"shared-kitchen/internal/auth"
	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/config"
	"shared-kitchen/internal/docstore"
	"shared-kitchen/internal/metrics"
	"shared-kitchen/internal/mutation"
	"shared-kitchen/internal/recipe"
	"shared-kitchen/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// api is the part of *tgbotapi.BotAPI the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Services are the kitchen components the bot drives.
type Services struct {
	Gate        *auth.Gate
	Meals       *calendar.Service
	Recipes     *recipe.Service
	Coordinator *mutation.Coordinator
	Importer    *recipe.Importer
	Shopping    *shopping.Service
	Metrics     *metrics.Recorder
}

// sessionIdleTTL is how long an untouched chat keeps its view state.
const sessionIdleTTL = 24 * time.Hour

// chatSession is one chat's view state. Updates for a chat are applied one
// at a time.
type chatSession struct {
	mu       sync.Mutex
	ctrl     *app.Controller
	lastSeen time.Time
}

// Bot wraps the Telegram API and one Controller per chat.
type Bot struct {
	api       api
	svc       Services
	household *config.Household
	dbPath    string
	feedURL   string
	clock     func() time.Time

	mu    sync.Mutex
	chats map[int64]*chatSession
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, svc Services) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	webhookURL := cfg.TelegramWebhookURL
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook url %s: %w", webhookURL, err)
	}
	// One connection keeps Telegram from delivering a chat's updates out of order.
	wh.MaxConnections = 1
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return newBot(bot, cfg, svc), nil
}

func newBot(a api, cfg *config.Config, svc Services) *Bot {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:       a,
		svc:       svc,
		household: cfg.Household,
		dbPath:    cfg.DatabasePath,
		feedURL:   feedURL(cfg.TelegramWebhookURL),
		clock:     func() time.Time { return time.Now().In(loc) },
		chats:     make(map[int64]*chatSession),
	}
}

// feedURL derives the public calendar feed address from the webhook URL.
func feedURL(webhookURL string) string {
	u, err := url.Parse(webhookURL)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Path = "/calendar.ics"
	u.RawQuery = ""
	return u.String()
}

// RegisterHandlers registers the bot's HTTP endpoints on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/calendar.ics", b.handleCalendarFeed)
	mux.Handle("/metrics", b.svc.Metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	b.handleUpdate(*update)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}
	b.processMessage(update.Message)
}

func (b *Bot) session(chatID int64) *chatSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock()
	for id, s := range b.chats {
		if id != chatID && now.Sub(s.lastSeen) > sessionIdleTTL {
			delete(b.chats, id)
		}
	}

	s, ok := b.chats[chatID]
	if !ok {
		s = &chatSession{ctrl: app.NewController(app.Deps{
			Gate:        b.svc.Gate,
			Meals:       b.svc.Meals,
			Recipes:     b.svc.Recipes,
			Coordinator: b.svc.Coordinator,
			Importer:    b.svc.Importer,
			Metrics:     b.svc.Metrics,
			Clock:       b.clock,
		})}
		b.chats[chatID] = s
	}
	s.lastSeen = now
	return s
}

// admit reports whether from may act on the chat's session. Anyone may use
// a signed-out chat; a signed-in one answers only to its member.
func (b *Bot) admit(c *app.Controller, from *tgbotapi.User) bool {
	s := c.State()
	if s.Phase != app.SignedIn || s.Identity == nil {
		return true
	}
	if from != nil {
		if m, ok := b.household.ByTelegramID(from.ID); ok && strings.EqualFold(m.Email, s.Identity.Email) {
			return true
		}
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", from.ID, from.UserName)
		return false
	}
	log.Printf("⚠️ Unauthorized access attempt from an anonymous sender")
	return false
}

// show edits messageID in place, or sends a new message when it is zero.
func (b *Bot) show(chatID int64, messageID int, scr screen) {
	var c tgbotapi.Chattable
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, scr.Text, scr.Keyboard)
		edit.ParseMode = tgbotapi.ModeMarkdown
		c = edit
	} else {
		msg := tgbotapi.NewMessage(chatID, scr.Text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = scr.Keyboard
		c = msg
	}
	if _, err := b.api.Send(c); err != nil {
		log.Printf("Failed to send screen to chat %d: %v", chatID, err)
	}
}

// progress replaces the screen with a status line while a slow call runs
// and returns the message to draw the result into.
func (b *Bot) progress(chatID int64, messageID int, text string) int {
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		b.api.Send(edit)
		return messageID
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	action, arg, _ := strings.Cut(query.Data, "|")

	sess := b.session(chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !b.admit(sess.ctrl, query.From) {
		b.api.Request(tgbotapi.NewCallback(query.ID, "⛔ Access denied"))
		return
	}

	ctx := context.Background()
	err := b.dispatch(ctx, sess.ctrl, query.From, chatID, messageID, action, arg)

	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, callbackText(err)))

	b.show(chatID, messageID, render(sess.ctrl))
}

// callbackText is the toast shown for a refused button press.
func callbackText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, app.ErrSignedOut):
		return "Please sign in first."
	case errors.Is(err, app.ErrOverlayActive), errors.Is(err, app.ErrWrongView),
		errors.Is(err, app.ErrNotAuthoring), errors.Is(err, app.ErrUnknownMeal),
		errors.Is(err, app.ErrUnknownRecipe), errors.Is(err, app.ErrDateOutOfRange):
		return "That button is out of date."
	case errors.Is(err, recipe.ErrTitleRequired):
		return "Please enter a title"
	case errors.Is(err, auth.ErrAuthDenied), errors.Is(err, auth.ErrAuthCancelled):
		return ""
	default:
		return "Something went wrong."
	}
}

func (b *Bot) dispatch(ctx context.Context, c *app.Controller, from *tgbotapi.User, chatID int64, messageID int, action, arg string) error {
	switch action {
	case actSignIn:
		if from == nil {
			return auth.ErrAuthDenied
		}
		err := c.SignIn(ctx, memberProvider{household: b.household, userID: from.ID})
		if errors.Is(err, auth.ErrAuthDenied) {
			log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", from.ID, from.UserName)
		}
		return err
	case actSignOut:
		c.SignOut()
		return nil
	case actView:
		v := app.CalendarView
		if arg == app.StudioView.String() {
			v = app.StudioView
		}
		return c.SwitchView(ctx, v)
	case actDay:
		day, err := time.ParseInLocation(dayArgLayout, arg, b.clock().Location())
		if err != nil {
			return app.ErrDateOutOfRange
		}
		return c.SelectDate(day)
	case actToggle:
		_, err := c.ToggleCooked(ctx, arg)
		return err
	case actMeal:
		return c.OpenMealDetail(ctx, arg)
	case actAdd:
		return c.OpenAddMeal(ctx)
	case actPick:
		b.progress(chatID, messageID, "⏳ *Adding to the calendar...*")
		_, err := c.AddMeal(ctx, arg)
		return err
	case actCreate:
		return c.CreateFromModal(ctx)
	case actClose:
		if c.State().Overlay == app.AddMealOverlay {
			return c.CloseAddMeal()
		}
		return c.CloseDetail()
	case actRecipe:
		return c.OpenRecipe(arg)
	case actNew:
		return c.StartAuthoring()
	case actSave:
		if strings.TrimSpace(c.State().Draft.Title) != "" {
			b.progress(chatID, messageID, "⏳ *Saving...*")
		}
		_, err := c.SaveDraft(ctx)
		return err
	case actCancel:
		return c.CancelAuthoring()
	}
	log.Printf("Unknown callback action %q", action)
	return nil
}

// splitCommand separates "/cmd@bot args" into "cmd" and "args". Text that
// is not a command returns an empty cmd.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	head, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, rest = text[:i], text[i+1:]
	}
	head, _, _ = strings.Cut(head[1:], "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

func isURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sess := b.session(chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ctx := context.Background()
	c := sess.ctrl
	if !b.admit(c, msg.From) {
		return
	}
	cmd, args := splitCommand(msg.Text)

	switch cmd {
	case "start":
		if args != "" {
			if err := c.Resume(ctx, args); err != nil {
				log.Printf("Failed to resume session for chat %d: %v", chatID, err)
			} else if !b.admit(c, msg.From) {
				c.SignOut()
			}
		}
		b.show(chatID, 0, render(c))
		return
	case "signout":
		c.SignOut()
		b.show(chatID, 0, render(c))
		return
	case "status":
		b.handleStatusCommand(c, chatID)
		return
	case "ics":
		b.handleFeedCommand(c, chatID)
		return
	case "shopping":
		b.handleShoppingCommand(ctx, c, chatID)
		return
	}

	s := c.State()
	if s.Phase != app.SignedIn {
		b.show(chatID, 0, render(c))
		return
	}

	switch {
	case s.Overlay == app.AddMealOverlay && cmd == "":
		c.SetSearch(args)
	case s.View == app.StudioView && s.Authoring:
		b.handleDraftInput(ctx, c, chatID, cmd, args)
	}
	b.show(chatID, 0, render(c))
}

func (b *Bot) handleDraftInput(ctx context.Context, c *app.Controller, chatID int64, cmd, args string) {
	var err error
	switch {
	case cmd == "title":
		err = c.SetDraftTitle(args)
	case cmd == "ingredients":
		err = c.SmartPaste(args)
	case cmd == "instructions":
		err = c.SetDraftInstructions(args)
	case cmd == "" && isURL(args):
		msgID := b.progress(chatID, 0, "✂️ *Importing recipe...*")
		if err = c.ImportDraft(ctx, args); err != nil {
			safeErr := strings.ReplaceAll(err.Error(), "`", "'")
			text := fmt.Sprintf("❌ *Error importing recipe:*\n```\n%v\n```", safeErr)
			if msgID != 0 {
				edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
				edit.ParseMode = tgbotapi.ModeMarkdown
				b.api.Send(edit)
			}
			return
		}
	}
	if err != nil {
		log.Printf("Draft input rejected: %v", err)
	}
}

func (b *Bot) handleStatusCommand(c *app.Controller, chatID int64) {
	if c.State().Phase != app.SignedIn {
		b.api.Send(tgbotapi.NewMessage(chatID, "⛔ Access denied: sign in first."))
		return
	}
	summary, err := b.svc.Metrics.MutationSummary()
	if err != nil {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error fetching metrics."))
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatStatusReport(summary, metrics.GetSysHealth(b.dbPath)))
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.api.Send(msg)
}

func (b *Bot) handleShoppingCommand(ctx context.Context, c *app.Controller, chatID int64) {
	if c.State().Phase != app.SignedIn {
		b.api.Send(tgbotapi.NewMessage(chatID, "⛔ Access denied: sign in first."))
		return
	}
	list, err := b.svc.Shopping.ForWeek(ctx, calendar.StartOfDay(b.clock()))
	if err != nil {
		log.Printf("Error building shopping list: %v", err)
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error building shopping list."))
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatShoppingList(list))
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.api.Send(msg)
}

func (b *Bot) handleFeedCommand(c *app.Controller, chatID int64) {
	s := c.State()
	if s.Phase != app.SignedIn || s.Identity == nil || b.feedURL == "" {
		b.api.Send(tgbotapi.NewMessage(chatID, "⛔ Calendar feed unavailable."))
		return
	}
	token, err := b.svc.Gate.FeedToken(*s.Identity)
	if err != nil {
		log.Printf("Failed to issue feed token for chat %d: %v", chatID, err)
		b.api.Send(tgbotapi.NewMessage(chatID, "⛔ Calendar feed unavailable."))
		return
	}
	link := b.feedURL + "?token=" + url.QueryEscape(token)
	b.api.Send(tgbotapi.NewMessage(chatID, "📆 Subscribe to this week's plan:\n"+link))
}

// handleCalendarFeed serves the coming week as an iCalendar file to holders
// of a feed token.
func (b *Bot) handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	if _, err := b.svc.Gate.ResumeFeed(r.URL.Query().Get("token")); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	now := b.clock()
	entries, err := b.svc.Meals.GetWeeklyPlan(r.Context(), calendar.StartOfDay(now))
	b.svc.Metrics.RecordLoad(docstore.CalendarCollection, err)
	if err != nil {
		log.Printf("Error loading calendar feed: %v", err)
		http.Error(w, "calendar unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := calendar.ExportICS(w, entries, now); err != nil {
		log.Printf("Error writing calendar feed: %v", err)
	}
}
