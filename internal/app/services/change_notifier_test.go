package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/rs/zerolog"
)

func baseEvent() models.Event {
	start := time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)
	return models.Event{
		ID:           10,
		Title:        "A",
		Description:  "desc",
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		Address:      "Main St 1",
		Latitude:     ptr(40.0),
		Longitude:    ptr(-3.0),
		LocationName: "Hall",
		CreatedBy:    1,
	}
}

func TestDiffEvent(t *testing.T) {
	prev := baseEvent()

	tests := []struct {
		name   string
		mutate func(e *models.Event)
		want   []string
	}{
		{"nothing", func(*models.Event) {}, nil},
		{"title", func(e *models.Event) { e.Title = "B" }, []string{"title"}},
		{"title and start", func(e *models.Event) {
			e.StartTime = e.StartTime.Add(time.Hour)
			e.Title = "B"
		}, []string{"title", "start_time"}},
		{"same instant other zone", func(e *models.Event) {
			e.StartTime = e.StartTime.In(time.FixedZone("CEST", 2*3600))
		}, nil},
		{"coordinates cleared", func(e *models.Event) { e.Latitude, e.Longitude = nil, nil }, []string{"latitude", "longitude"}},
		{"untracked map link", func(e *models.Event) { e.MapLink = "https://example.com" }, nil},
		{"all in order", func(e *models.Event) {
			e.LocationName = "Other"
			e.Perks = "free"
			e.EndTime = e.EndTime.Add(time.Minute)
			e.Address = "x"
			e.Description = "y"
			e.Longitude = ptr(-3.5)
		}, []string{"description", "perks", "end_time", "address", "longitude", "location_name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := prev
			tt.mutate(&cur)
			if got := DiffEvent(&prev, &cur); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DiffEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

type notifierFixture struct {
	rsvps         *fakeRSVPStore
	notifications *fakeNotificationStore
	mailer        *fakeMailer
	broadcaster   *fakeBroadcaster
	notifier      *ChangeNotifier
}

func newNotifierFixture() *notifierFixture {
	f := &notifierFixture{
		rsvps:         newFakeRSVPStore(),
		notifications: &fakeNotificationStore{},
		mailer:        &fakeMailer{},
		broadcaster:   &fakeBroadcaster{},
	}
	f.notifier = NewChangeNotifier(f.rsvps, f.notifications, f.mailer, f.broadcaster, zerolog.Nop())
	return f
}

func (f *notifierFixture) rsvp(userID, eventID int64, status models.RSVPStatus, email string, optedOut bool) {
	_, _ = f.rsvps.Create(context.Background(), &models.RSVP{UserID: userID, EventID: eventID, Status: status})
	f.rsvps.emails[userID] = email
	f.rsvps.opted[userID] = optedOut
}

func TestOnEventCommittedNotifiesGoingAttendees(t *testing.T) {
	f := newNotifierFixture()
	f.rsvp(100, 10, models.RSVPGoing, "ann@example.com", false)
	f.rsvp(101, 10, models.RSVPGoing, "", false)
	f.rsvp(102, 10, models.RSVPGoing, "out@example.com", true)
	f.rsvp(103, 10, models.RSVPMaybe, "maybe@example.com", false)
	f.rsvp(104, 11, models.RSVPGoing, "other@example.com", false)

	prev := baseEvent()
	cur := prev
	cur.Title = "B"

	if err := f.notifier.OnEventCommitted(context.Background(), models.EventChange{Previous: &prev, Current: &cur}); err != nil {
		t.Fatalf("OnEventCommitted() error = %v", err)
	}
	f.notifier.Wait()

	if len(f.notifications.items) != 2 || f.notifications.batches != 1 {
		t.Fatalf("stored %d notifications in %d batches, want 2 in 1", len(f.notifications.items), f.notifications.batches)
	}
	for i, n := range f.notifications.items {
		if n.Summary != "Event 'B' updated: title" || n.Link != "" || n.Read || n.EventID != 10 {
			t.Errorf("notification %d = %+v", i, n)
		}
	}
	if f.notifications.items[0].UserID != 100 || f.notifications.items[1].UserID != 101 {
		t.Errorf("unexpected recipients %+v", f.notifications.items)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.mailer.sent))
	}
	if m := f.mailer.sent[0]; m.to != "ann@example.com" || m.subject != "Update for B" || m.body != "Event 'B' updated: title" {
		t.Errorf("email = %+v", m)
	}

	if len(f.broadcaster.messages) != 2 || f.broadcaster.messages[0].NotificationID == 0 {
		t.Errorf("broadcasts = %+v", f.broadcaster.messages)
	}
}

func TestOnEventCommittedListsFieldsInOrder(t *testing.T) {
	f := newNotifierFixture()
	f.rsvp(100, 10, models.RSVPGoing, "", false)

	prev := baseEvent()
	cur := prev
	cur.StartTime = cur.StartTime.Add(24 * time.Hour)
	cur.Title = "B"

	if err := f.notifier.OnEventCommitted(context.Background(), models.EventChange{Previous: &prev, Current: &cur}); err != nil {
		t.Fatalf("OnEventCommitted() error = %v", err)
	}
	if got := f.notifications.items[0].Summary; got != "Event 'B' updated: title, start_time" {
		t.Errorf("summary = %q", got)
	}
}

func TestOnEventCommittedSkipsCreationAndNoops(t *testing.T) {
	f := newNotifierFixture()
	f.rsvp(100, 10, models.RSVPGoing, "a@example.com", false)

	cur := baseEvent()
	if err := f.notifier.OnEventCommitted(context.Background(), models.EventChange{Current: &cur}); err != nil {
		t.Fatalf("creation: %v", err)
	}
	same := cur
	same.MapLink = "https://maps.example.com"
	if err := f.notifier.OnEventCommitted(context.Background(), models.EventChange{Previous: &cur, Current: &same}); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	f.notifier.Wait()
	if len(f.notifications.items) != 0 || len(f.mailer.sent) != 0 || len(f.broadcaster.messages) != 0 {
		t.Fatalf("unexpected delivery: %d notifications", len(f.notifications.items))
	}
}

func TestDeliveryFailuresDoNotFailFanOut(t *testing.T) {
	f := newNotifierFixture()
	f.mailer.failErr = errors.New("smtp down")
	f.broadcaster.failErr = errors.New("redis down")
	f.rsvp(100, 10, models.RSVPGoing, "a@example.com", false)
	f.rsvp(101, 10, models.RSVPGoing, "b@example.com", false)

	ev := baseEvent()
	a := &models.Announcement{ID: 3, EventID: 10, Title: "Doors open at 7"}
	if err := f.notifier.OnAnnouncementCreated(context.Background(), a, &ev); err != nil {
		t.Fatalf("OnAnnouncementCreated() error = %v", err)
	}
	f.notifier.Wait()
	if len(f.notifications.items) != 2 {
		t.Fatalf("stored %d notifications, want 2", len(f.notifications.items))
	}
	if got := f.notifications.items[1].Summary; got != "New announcement for 'A': Doors open at 7" {
		t.Errorf("summary = %q", got)
	}
	if len(f.mailer.sent) != 0 || len(f.broadcaster.messages) != 0 {
		t.Errorf("failed deliveries recorded: %d emails, %d broadcasts", len(f.mailer.sent), len(f.broadcaster.messages))
	}
}

type blockingMailer struct {
	release chan struct{}
	calls   chan string
}

func (m *blockingMailer) SendNotificationEmail(to, _, _ string) error {
	m.calls <- to
	<-m.release
	return nil
}

func (m *blockingMailer) SendPasswordResetEmail(string, string, string) error { return nil }

func TestOnEventCommittedDoesNotWaitForMailer(t *testing.T) {
	f := newNotifierFixture()
	mailer := &blockingMailer{release: make(chan struct{}), calls: make(chan string, 4)}
	f.notifier = NewChangeNotifier(f.rsvps, f.notifications, mailer, f.broadcaster, zerolog.Nop())
	f.rsvp(100, 10, models.RSVPGoing, "a@example.com", false)

	prev := baseEvent()
	cur := prev
	cur.Title = "B"

	returned := make(chan error, 1)
	go func() {
		returned <- f.notifier.OnEventCommitted(context.Background(), models.EventChange{Previous: &prev, Current: &cur})
	}()

	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("OnEventCommitted() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		close(mailer.release)
		t.Fatal("OnEventCommitted blocked on the mailer")
	}
	if len(f.notifications.items) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(f.notifications.items))
	}

	select {
	case to := <-mailer.calls:
		if to != "a@example.com" {
			t.Errorf("mailed %q", to)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("background delivery never reached the mailer")
	}

	close(mailer.release)
	f.notifier.Wait()
	if len(f.broadcaster.messages) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(f.broadcaster.messages))
	}
}

func TestStorageFailureIsReported(t *testing.T) {
	f := newNotifierFixture()
	f.notifications.failErr = errStorage
	f.rsvp(100, 10, models.RSVPGoing, "a@example.com", false)

	ev := baseEvent()
	err := f.notifier.OnAnnouncementCreated(context.Background(), &models.Announcement{Title: "x"}, &ev)
	if !errors.Is(err, errStorage) {
		t.Fatalf("error = %v, want storage error", err)
	}
	f.notifier.Wait()
	if len(f.mailer.sent) != 0 {
		t.Error("emails sent although notifications were not stored")
	}
}

func TestSummaryIsTruncatedToColumnWidth(t *testing.T) {
	f := newNotifierFixture()
	f.rsvp(100, 10, models.RSVPGoing, "", false)

	prev := baseEvent()
	cur := prev
	cur.Title = strings.Repeat("ü", 300)

	if err := f.notifier.OnEventCommitted(context.Background(), models.EventChange{Previous: &prev, Current: &cur}); err != nil {
		t.Fatalf("OnEventCommitted() error = %v", err)
	}
	if got := []rune(f.notifications.items[0].Summary); len(got) != models.SummaryMaxLength {
		t.Errorf("summary length = %d runes, want %d", len(got), models.SummaryMaxLength)
	}
}
