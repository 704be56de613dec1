package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/repositories"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/websocket"
)

type fakeEventStore struct {
	mu       sync.Mutex
	nextID   int64
	events   map[int64]*models.Event
	counts   map[int64]models.RSVPCounts
	listed   []models.EventWithCounts
	lastList *repositories.EventQuery
	failUpd  error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[int64]*models.Event{}, counts: map[int64]models.RSVPCounts{}}
}

func (f *fakeEventStore) put(ev models.Event) *models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.ID == 0 {
		f.nextID++
		ev.ID = f.nextID
	}
	f.events[ev.ID] = &ev
	return &ev
}

func (f *fakeEventStore) Create(_ context.Context, ev *models.Event) (*models.Event, error) {
	created := f.put(*ev)
	out := *created
	return &out, nil
}

func (f *fakeEventStore) List(_ context.Context, q *repositories.EventQuery) ([]models.EventWithCounts, error) {
	f.lastList = q
	return f.listed, nil
}

func (f *fakeEventStore) GetWithCounts(_ context.Context, id int64) (*models.EventWithCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return &models.EventWithCounts{Event: *ev, Counts: f.counts[id]}, nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id int64) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	out := *ev
	return &out, nil
}

func (f *fakeEventStore) Update(_ context.Context, id int64, mutate func(ev *models.Event) error) (*models.EventChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	prev := *ev
	cur := *ev
	if err := mutate(&cur); err != nil {
		return nil, err
	}
	if f.failUpd != nil {
		return nil, f.failUpd
	}
	cur.UpdatedAt = time.Now()
	f.events[id] = &cur
	stored := cur
	return &models.EventChange{Previous: &prev, Current: &stored}, nil
}

func (f *fakeEventStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return apperrors.ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

type fakeRSVPStore struct {
	nextID int64
	rsvps  map[int64]*models.RSVP
	opted  map[int64]bool
	emails map[int64]string
}

func newFakeRSVPStore() *fakeRSVPStore {
	return &fakeRSVPStore{rsvps: map[int64]*models.RSVP{}, opted: map[int64]bool{}, emails: map[int64]string{}}
}

func (f *fakeRSVPStore) Create(_ context.Context, r *models.RSVP) (*models.RSVP, error) {
	for _, existing := range f.rsvps {
		if existing.UserID == r.UserID && existing.EventID == r.EventID {
			return nil, apperrors.ErrRSVPAlreadyExists
		}
	}
	f.nextID++
	out := *r
	out.ID = f.nextID
	f.rsvps[out.ID] = &out
	return &out, nil
}

func (f *fakeRSVPStore) GetByID(_ context.Context, id int64) (*models.RSVP, error) {
	r, ok := f.rsvps[id]
	if !ok {
		return nil, apperrors.ErrRSVPNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeRSVPStore) List(_ context.Context, eventID *int64) ([]models.RSVP, error) {
	var out []models.RSVP
	for _, r := range f.rsvps {
		if eventID == nil || r.EventID == *eventID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRSVPStore) UpdateStatus(_ context.Context, id int64, status models.RSVPStatus) (*models.RSVP, error) {
	r, ok := f.rsvps[id]
	if !ok {
		return nil, apperrors.ErrRSVPNotFound
	}
	r.Status = status
	out := *r
	return &out, nil
}

func (f *fakeRSVPStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.rsvps[id]; !ok {
		return apperrors.ErrRSVPNotFound
	}
	delete(f.rsvps, id)
	return nil
}

func (f *fakeRSVPStore) GoingRecipients(_ context.Context, eventID int64) ([]models.Recipient, error) {
	var out []models.Recipient
	for id := int64(1); id <= f.nextID; id++ {
		r, ok := f.rsvps[id]
		if !ok || r.EventID != eventID || r.Status != models.RSVPGoing {
			continue
		}
		out = append(out, models.Recipient{UserID: r.UserID, Email: f.emails[r.UserID], OptedOut: f.opted[r.UserID]})
	}
	return out, nil
}

type fakeNotificationStore struct {
	nextID  int64
	items   []models.Notification
	batches int
	failErr error
}

func (f *fakeNotificationStore) CreateBatch(_ context.Context, ns []models.Notification) ([]models.Notification, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.batches++
	out := make([]models.Notification, 0, len(ns))
	for _, n := range ns {
		f.nextID++
		n.ID = f.nextID
		n.CreatedAt = time.Now()
		f.items = append(f.items, n)
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotificationStore) ListForUser(_ context.Context, userID int64, offset, limit uint64) ([]models.Notification, int64, error) {
	var mine []models.Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].UserID == userID {
			mine = append(mine, f.items[i])
		}
	}
	total := int64(len(mine))
	if offset >= uint64(len(mine)) {
		return nil, total, nil
	}
	end := offset + limit
	if end > uint64(len(mine)) {
		end = uint64(len(mine))
	}
	return mine[offset:end], total, nil
}

func (f *fakeNotificationStore) CountUnread(_ context.Context, userID int64) (int64, error) {
	var n int64
	for _, it := range f.items {
		if it.UserID == userID && !it.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotificationStore) GetByID(_ context.Context, id int64) (*models.Notification, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotificationNotFound
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id int64) (*models.Notification, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotificationNotFound
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent    []sentMail
	resets  []string
	failErr error
}

func (m *fakeMailer) SendNotificationEmail(to, subject, body string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(to, _ string, token string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.resets = append(m.resets, to+":"+token)
	return nil
}

type fakeBroadcaster struct {
	messages []*websocket.Message
	failErr  error
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, m *websocket.Message) error {
	if b.failErr != nil {
		return b.failErr
	}
	b.messages = append(b.messages, m)
	return nil
}

type recordingListener struct {
	changes       []models.EventChange
	announcements []*models.Announcement
}

func (l *recordingListener) OnEventCommitted(_ context.Context, c models.EventChange) error {
	l.changes = append(l.changes, c)
	return nil
}

func (l *recordingListener) OnAnnouncementCreated(_ context.Context, a *models.Announcement, _ *models.Event) error {
	l.announcements = append(l.announcements, a)
	return nil
}

type fakeAnnouncementStore struct {
	nextID int64
	items  map[int64]*models.Announcement
}

func newFakeAnnouncementStore() *fakeAnnouncementStore {
	return &fakeAnnouncementStore{items: map[int64]*models.Announcement{}}
}

func (f *fakeAnnouncementStore) Create(_ context.Context, a *models.Announcement) (*models.Announcement, error) {
	f.nextID++
	out := *a
	out.ID = f.nextID
	f.items[out.ID] = &out
	return &out, nil
}

func (f *fakeAnnouncementStore) GetByID(_ context.Context, id int64) (*models.Announcement, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, apperrors.ErrAnnouncementNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeAnnouncementStore) List(_ context.Context, eventID *int64) ([]models.Announcement, error) {
	var out []models.Announcement
	for _, a := range f.items {
		if eventID == nil || a.EventID == *eventID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAnnouncementStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return apperrors.ErrAnnouncementNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeUserStore struct {
	nextID   int64
	users    map[int64]*models.User
	profiles map[int64]*models.Profile
	lastSeen map[int64]time.Time
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*models.User{}, profiles: map[int64]*models.Profile{}, lastSeen: map[int64]time.Time{}}
}

func (f *fakeUserStore) CreateWithProfile(_ context.Context, u *models.User, p *models.Profile) error {
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperrors.ErrUsernameAlreadyExists
		}
		if existing.Email == u.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.IsActive = true
	p.UserID = u.ID
	stored := *u
	f.users[u.ID] = &stored
	prof := *p
	f.profiles[u.ID] = &prof
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, name string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == name {
			out := *u
			return &out, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(_ context.Context, addr string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == addr {
			out := *u
			return &out, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	f.lastSeen[id] = at
	return nil
}

// fakeProfileStore shares its map with a fakeUserStore.
type fakeProfileStore struct {
	profiles map[int64]*models.Profile
}

func (f *fakeProfileStore) GetByUserID(_ context.Context, id int64) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeProfileStore) Save(_ context.Context, p *models.Profile) (*models.Profile, error) {
	out := *p
	out.UpdatedAt = time.Now()
	f.profiles[p.UserID] = &out
	ret := out
	return &ret, nil
}

type fakeRefreshTokenStore struct {
	tokens map[string]int64
	revoke map[string]bool
}

func newFakeRefreshTokenStore() *fakeRefreshTokenStore {
	return &fakeRefreshTokenStore{tokens: map[string]int64{}, revoke: map[string]bool{}}
}

func (f *fakeRefreshTokenStore) CreateToken(_ context.Context, token string, userID int64, _ time.Time) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakeRefreshTokenStore) ValidateToken(_ context.Context, token string) (int64, error) {
	id, ok := f.tokens[token]
	if !ok {
		return 0, apperrors.ErrTokenNotFound
	}
	if f.revoke[token] {
		return 0, apperrors.ErrTokenRevoked
	}
	return id, nil
}

func (f *fakeRefreshTokenStore) RevokeToken(_ context.Context, userID int64, token string) error {
	if f.tokens[token] != userID {
		return apperrors.ErrTokenNotFound
	}
	f.revoke[token] = true
	return nil
}

func (f *fakeRefreshTokenStore) RevokeAllUserTokens(_ context.Context, userID int64) error {
	for tok, id := range f.tokens {
		if id == userID {
			f.revoke[tok] = true
		}
	}
	return nil
}

func (f *fakeRefreshTokenStore) CleanupExpiredTokens(context.Context) (int64, error) { return 0, nil }

type fakeResetTokenStore struct {
	tokens map[string]int64
	used   map[string]bool
}

func newFakeResetTokenStore() *fakeResetTokenStore {
	return &fakeResetTokenStore{tokens: map[string]int64{}, used: map[string]bool{}}
}

func (f *fakeResetTokenStore) CreateToken(_ context.Context, userID int64, token string, _ time.Time) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakeResetTokenStore) Consume(_ context.Context, token string) (int64, error) {
	id, ok := f.tokens[token]
	if !ok {
		return 0, apperrors.ErrInvalidPasswordResetToken
	}
	if f.used[token] {
		return 0, apperrors.ErrPasswordResetTokenUsed
	}
	f.used[token] = true
	return id, nil
}

func (f *fakeResetTokenStore) DeleteExpiredTokens(context.Context) (int64, error) { return 0, nil }

var errStorage = errors.New("storage unavailable")

func ptr[T any](v T) *T { return &v }
