package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/pkg/email"
	"github.com/gatherly/gatherly/internal/pkg/websocket"
	"github.com/rs/zerolog"
)

type trackedField struct {
	name    string
	changed func(prev, cur *models.Event) bool
}

// trackedFields is the order in which changed names appear in summaries.
var trackedFields = []trackedField{
	{"title", func(p, c *models.Event) bool { return p.Title != c.Title }},
	{"description", func(p, c *models.Event) bool { return p.Description != c.Description }},
	{"perks", func(p, c *models.Event) bool { return p.Perks != c.Perks }},
	{"start_time", func(p, c *models.Event) bool { return !p.StartTime.Equal(c.StartTime) }},
	{"end_time", func(p, c *models.Event) bool { return !p.EndTime.Equal(c.EndTime) }},
	{"address", func(p, c *models.Event) bool { return p.Address != c.Address }},
	{"latitude", func(p, c *models.Event) bool { return !sameFloat(p.Latitude, c.Latitude) }},
	{"longitude", func(p, c *models.Event) bool { return !sameFloat(p.Longitude, c.Longitude) }},
	{"location_name", func(p, c *models.Event) bool { return p.LocationName != c.LocationName }},
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DiffEvent returns the names of the tracked fields that differ between prev and cur.
func DiffEvent(prev, cur *models.Event) []string {
	if prev == nil || cur == nil {
		return nil
	}
	var changed []string
	for _, f := range trackedFields {
		if f.changed(prev, cur) {
			changed = append(changed, f.name)
		}
	}
	return changed
}

func EventUpdateSummary(title string, fields []string) string {
	return fmt.Sprintf("Event '%s' updated: %s", title, strings.Join(fields, ", "))
}

func AnnouncementSummary(eventTitle, announcementTitle string) string {
	return fmt.Sprintf("New announcement for '%s': %s", eventTitle, announcementTitle)
}

// truncateSummary cuts s to the notifications.summary column width in runes.
func truncateSummary(s string) string {
	r := []rune(s)
	if len(r) <= models.SummaryMaxLength {
		return s
	}
	return string(r[:models.SummaryMaxLength])
}

// DeliveryTimeout bounds the email and push delivery that follows one stored batch.
const DeliveryTimeout = 2 * time.Minute

// ChangeNotifier fans out notifications to the going attendees of an event after an
// update or a new announcement has been committed. Notifications are stored before the
// call returns; email and live push run in the background.
type ChangeNotifier struct {
	recipients    RecipientSource
	notifications NotificationWriter
	mailer        email.EmailService
	broadcaster   Broadcaster
	logger        zerolog.Logger
	now           func() time.Time

	deliveryTimeout time.Duration
	deliveries      sync.WaitGroup
}

func NewChangeNotifier(
	recipients RecipientSource,
	notifications NotificationWriter,
	mailer email.EmailService,
	broadcaster Broadcaster,
	logger zerolog.Logger,
) *ChangeNotifier {
	return &ChangeNotifier{
		recipients:    recipients,
		notifications: notifications,
		mailer:        mailer,
		broadcaster:   broadcaster,
		logger:        logger,
		now:           time.Now,

		deliveryTimeout: DeliveryTimeout,
	}
}

// Wait blocks until every background delivery started so far has finished.
func (n *ChangeNotifier) Wait() {
	n.deliveries.Wait()
}

// OnEventCommitted notifies about a committed update. Creations and updates that touch
// no tracked field are ignored.
func (n *ChangeNotifier) OnEventCommitted(ctx context.Context, change models.EventChange) error {
	if change.Previous == nil || change.Current == nil {
		return nil
	}
	fields := DiffEvent(change.Previous, change.Current)
	if len(fields) == 0 {
		return nil
	}
	return n.notifyGoing(ctx, change.Current, EventUpdateSummary(change.Current.Title, fields))
}

// OnAnnouncementCreated notifies about a newly created announcement.
func (n *ChangeNotifier) OnAnnouncementCreated(ctx context.Context, announcement *models.Announcement, event *models.Event) error {
	if announcement == nil || event == nil {
		return nil
	}
	return n.notifyGoing(ctx, event, AnnouncementSummary(event.Title, announcement.Title))
}

func (n *ChangeNotifier) notifyGoing(ctx context.Context, event *models.Event, summary string) error {
	log := n.logger.With().Int64("eventId", event.ID).Logger()

	recipients, err := n.recipients.GoingRecipients(ctx, event.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list going attendees")
		return fmt.Errorf("listing recipients for event %d: %w", event.ID, err)
	}

	summary = truncateSummary(summary)
	emails := make(map[int64]string, len(recipients))
	batch := make([]models.Notification, 0, len(recipients))
	for _, r := range recipients {
		if r.OptedOut {
			continue
		}
		emails[r.UserID] = r.Email
		batch = append(batch, models.Notification{
			UserID:  r.UserID,
			EventID: event.ID,
			Summary: summary,
		})
	}
	if len(batch) == 0 {
		log.Debug().Msg("No notification recipients")
		return nil
	}

	stored, err := n.notifications.CreateBatch(ctx, batch)
	if err != nil {
		log.Error().Err(err).Int("recipients", len(batch)).Msg("Failed to store notifications")
		return fmt.Errorf("storing notifications for event %d: %w", event.ID, err)
	}

	// The request that committed the change must not wait on SMTP or redis.
	n.deliveries.Add(1)
	go func() {
		defer n.deliveries.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.deliveryTimeout)
		defer cancel()
		n.deliver(dctx, log, event.Title, summary, stored, emails)
	}()

	log.Info().Int("recipients", len(stored)).Msg("Notifications stored")
	return nil
}

func (n *ChangeNotifier) deliver(
	ctx context.Context,
	log zerolog.Logger,
	eventTitle, summary string,
	stored []models.Notification,
	emails map[int64]string,
) {
	subject := "Update for " + eventTitle
	for i := range stored {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("undelivered", len(stored)-i).Msg("Notification delivery stopped")
			return
		}
		nf := &stored[i]
		if addr := emails[nf.UserID]; addr != "" && n.mailer != nil {
			if err := n.mailer.SendNotificationEmail(addr, subject, summary); err != nil {
				log.Warn().Err(err).Int64("userId", nf.UserID).Msg("Notification email failed")
			}
		}
		if n.broadcaster != nil {
			createdAt := nf.CreatedAt
			if createdAt.IsZero() {
				createdAt = n.now()
			}
			msg := &websocket.Message{
				Type:           websocket.MessageTypeNotification,
				UserID:         nf.UserID,
				NotificationID: nf.ID,
				EventID:        nf.EventID,
				Summary:        nf.Summary,
				Link:           nf.Link,
				CreatedAt:      createdAt,
			}
			if err := n.broadcaster.Broadcast(ctx, msg); err != nil {
				log.Warn().Err(err).Int64("userId", nf.UserID).Msg("Notification broadcast failed")
			}
		}
	}
	log.Info().Int("recipients", len(stored)).Msg("Notifications delivered")
}
