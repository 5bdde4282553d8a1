package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"praktika/internal/config"
	"praktika/internal/database"
	"praktika/internal/events"
	"praktika/internal/models"
	"praktika/internal/schedule"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the subset of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier pushes the next-day schedule digest and conflict-override
// alerts into the practice staff chat.
type Notifier struct {
	sender Sender
	db     *database.DB
	cfg    config.TelegramConfig
	loc    *time.Location
	logger *zerolog.Logger
}

func New(sender Sender, db *database.DB, cfg config.TelegramConfig, loc *time.Location, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		db:     db,
		cfg:    cfg,
		loc:    loc,
		logger: logger,
	}
}

// NewBotAPI dials the Telegram API with the configured token.
func NewBotAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return bot, nil
}

// SubscribeOverrideAlerts wires the notifier to the event bus so every
// accepted double-booking is raised in the staff chat immediately.
func (n *Notifier) SubscribeOverrideAlerts(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingConflictOverride, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		n.sendMessage(n.formatOverrideAlert(payload))
		return nil
	})
}

// StartDigest sends the next-day schedule every evening at the configured
// reminder time; stops when ctx is done.
func (n *Notifier) StartDigest(ctx context.Context) {
	hour := models.ReminderHour
	if n.cfg.ReminderTime != "" {
		var m int
		if _, err := fmt.Sscanf(n.cfg.ReminderTime, "%d:%d", &hour, &m); err != nil {
			n.logger.Error().Err(err).Str("reminder_time", n.cfg.ReminderTime).Msg("invalid reminder time")
			hour = models.ReminderHour
		}
	}

	go func() {
		timer := time.NewTimer(n.untilNextHour(hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				n.SendTomorrowDigest(ctx)
				timer.Reset(n.untilNextHour(hour))
			}
		}
	}()
}

// SendTomorrowDigest posts tomorrow's sessions grouped by practitioner.
func (n *Notifier) SendTomorrowDigest(ctx context.Context) {
	tomorrow := time.Now().In(n.loc).AddDate(0, 0, 1).Format("2006-01-02")
	window, err := schedule.DayWindow(tomorrow, n.loc, 0)
	if err != nil {
		n.logger.Error().Err(err).Msg("digest: day window")
		return
	}

	bookings, err := n.db.GetBookingsForWindow(ctx, window.Start, window.End)
	if err != nil {
		n.logger.Error().Err(err).Msg("digest: load bookings")
		return
	}

	n.sendMessage(n.formatDigest(ctx, tomorrow, bookings))
}

func (n *Notifier) formatDigest(ctx context.Context, date string, bookings []*models.Booking) string {
	live := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == models.StatusScheduled {
			live = append(live, b)
		}
	}

	parsed, _ := time.ParseInLocation("2006-01-02", date, n.loc)
	header := fmt.Sprintf("Schedule for %s", parsed.Format("Monday, 02.01.2006"))
	if len(live) == 0 {
		return header + "\n\nNo sessions scheduled."
	}

	byStaff := make(map[int64][]*models.Booking)
	var staffIDs []int64
	for _, b := range live {
		if _, seen := byStaff[b.StaffID]; !seen {
			staffIDs = append(staffIDs, b.StaffID)
		}
		byStaff[b.StaffID] = append(byStaff[b.StaffID], b)
	}
	sort.Slice(staffIDs, func(i, j int) bool { return staffIDs[i] < staffIDs[j] })

	msg := header + "\n"
	for _, staffID := range staffIDs {
		msg += "\n" + n.staffName(ctx, staffID) + ":\n"
		for _, b := range byStaff[staffID] {
			msg += fmt.Sprintf("  %s-%s %s (%s)\n",
				b.Start.In(n.loc).Format("15:04"),
				b.End().In(n.loc).Format("15:04"),
				b.ClientName,
				n.roomName(ctx, b))
		}
	}
	return msg
}

func (n *Notifier) formatOverrideAlert(payload events.BookingEventPayload) string {
	return fmt.Sprintf(
		"Double-booking accepted: %s on %s at %s (%d min), %s conflict overridden.",
		payload.ClientName,
		payload.Start.In(n.loc).Format("02.01.2006"),
		payload.Start.In(n.loc).Format("15:04"),
		payload.DurationMinutes,
		payload.Verdict,
	)
}

func (n *Notifier) staffName(ctx context.Context, staffID int64) string {
	staff, err := n.db.GetStaffByID(ctx, staffID)
	if err != nil {
		return fmt.Sprintf("staff %d", staffID)
	}
	return staff.Name
}

func (n *Notifier) roomName(ctx context.Context, b *models.Booking) string {
	if !b.HasRoom() {
		return "remote"
	}
	room, err := n.db.GetRoomByID(ctx, *b.RoomID)
	if err != nil {
		return fmt.Sprintf("room %d", *b.RoomID)
	}
	return room.Name
}

func (n *Notifier) sendMessage(text string) {
	if n.sender == nil || n.cfg.StaffChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(n.cfg.StaffChatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("telegram send")
	}
}

func (n *Notifier) untilNextHour(hour int) time.Duration {
	now := time.Now().In(n.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, n.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
