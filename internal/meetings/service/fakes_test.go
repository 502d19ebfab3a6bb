package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"glec/internal/events"
	meetingserrors "glec/internal/meetings/errors"
	"glec/internal/meetings/repository"
	"glec/internal/notification"
	mongotx "glec/pkg/db/mongo"
	apperrors "glec/pkg/errors"
	"glec/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memStore is an in-memory stand-in for the Mongo collections. Single
// operations are atomic under mu, and ExecuteTransaction serializes
// transactions and rolls back their writes on error.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	slots      map[string]*model.MeetingSlot
	tokens     map[string]*model.BookingToken // by hash
	bookings   map[string]*model.MeetingBooking
	leads      map[string]*model.Lead
	activities map[string]*model.LeadActivity // by event id

	failMarkSent error
	failTx       error
}

func newMemStore() *memStore {
	return &memStore{
		slots:      map[string]*model.MeetingSlot{},
		tokens:     map[string]*model.BookingToken{},
		bookings:   map[string]*model.MeetingBooking{},
		leads:      map[string]*model.Lead{},
		activities: map[string]*model.LeadActivity{},
	}
}

type memSnapshot struct {
	slots    map[string]model.MeetingSlot
	tokens   map[string]model.BookingToken
	bookings map[string]model.MeetingBooking
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := memSnapshot{
		slots:    make(map[string]model.MeetingSlot, len(m.slots)),
		tokens:   make(map[string]model.BookingToken, len(m.tokens)),
		bookings: make(map[string]model.MeetingBooking, len(m.bookings)),
	}
	for k, v := range m.slots {
		s.slots[k] = *v
	}
	for k, v := range m.tokens {
		s.tokens[k] = *v
	}
	for k, v := range m.bookings {
		s.bookings[k] = *v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots = make(map[string]*model.MeetingSlot, len(s.slots))
	for k, v := range s.slots {
		v := v
		m.slots[k] = &v
	}
	m.tokens = make(map[string]*model.BookingToken, len(s.tokens))
	for k, v := range s.tokens {
		v := v
		m.tokens[k] = &v
	}
	m.bookings = make(map[string]*model.MeetingBooking, len(s.bookings))
	for k, v := range s.bookings {
		v := v
		m.bookings[k] = &v
	}
}

func (m *memStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if m.failTx != nil {
		return fmt.Errorf("transaction failed: %w", m.failTx)
	}

	before := m.snapshot()
	if err := fn(mongo.NewSessionContext(ctx, nil)); err != nil {
		m.restore(before)
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func validID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// seed helpers

func (m *memStore) addSlot(s model.MeetingSlot) *model.MeetingSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = newID()
	}
	m.slots[s.ID] = &s
	return &s
}

func (m *memStore) addLead(l model.Lead) *model.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = newID()
	}
	m.leads[l.ID] = &l
	return &l
}

func (m *memStore) addToken(raw string, t model.BookingToken) *model.BookingToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	t.TokenHash = HashToken(raw)
	m.tokens[t.TokenHash] = &t
	return &t
}

func (m *memStore) slot(id string) model.MeetingSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.slots[id]
}

func (m *memStore) token(raw string) model.BookingToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.tokens[HashToken(raw)]
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memStore) repos() (*memSlots, *memTokens, *memBookings, *memLeads, *memActivities) {
	return &memSlots{m}, &memTokens{m}, &memBookings{m}, &memLeads{m}, &memActivities{m}
}

// slots

type memSlots struct{ *memStore }

var _ repository.SlotRepository = (*memSlots)(nil)

func (r *memSlots) Create(ctx context.Context, slot *model.MeetingSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot.ID = newID()
	cp := *slot
	r.slots[slot.ID] = &cp
	return nil
}

func (r *memSlots) FindByID(ctx context.Context, id string) (*model.MeetingSlot, error) {
	if !validID(id) {
		return nil, meetingserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, meetingserrors.ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSlots) FindByIDs(ctx context.Context, ids []string) ([]*model.MeetingSlot, error) {
	var out []*model.MeetingSlot
	for _, id := range ids {
		if s, err := r.FindByID(ctx, id); err == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSlots) matching(pred func(*model.MeetingSlot) bool) []*model.MeetingSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MeetingSlot
	for _, s := range r.slots {
		if pred(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func slotFilterPred(f model.SlotFilter) func(*model.MeetingSlot) bool {
	return func(s *model.MeetingSlot) bool {
		if f.MeetingType != "" && s.MeetingType != f.MeetingType {
			return false
		}
		if f.Status != "" && s.Status != f.Status {
			return false
		}
		if f.From != nil && s.StartTime.Before(*f.From) {
			return false
		}
		if f.To != nil && s.StartTime.After(*f.To) {
			return false
		}
		return true
	}
}

func (r *memSlots) List(ctx context.Context, f model.SlotFilter) ([]*model.MeetingSlot, error) {
	all := r.matching(slotFilterPred(f))
	start := min(int(f.Offset), len(all))
	end := len(all)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(all))
	}
	return all[start:end], nil
}

func (r *memSlots) Count(ctx context.Context, f model.SlotFilter) (int64, error) {
	return int64(len(r.matching(slotFilterPred(f)))), nil
}

func normalizeStatus(s *model.MeetingSlot) {
	if s.Status == model.SlotBlocked {
		return
	}
	if s.CurrentBookings >= s.MaxBookings {
		s.Status = model.SlotBooked
	} else {
		s.Status = model.SlotAvailable
	}
}

func (r *memSlots) Update(ctx context.Context, id string, u *model.MeetingSlotUpdate, now time.Time) (*model.MeetingSlot, error) {
	if !validID(id) {
		return nil, meetingserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, meetingserrors.ErrSlotNotFound
	}
	if u.MaxBookings != nil && s.CurrentBookings > *u.MaxBookings {
		return nil, meetingserrors.ErrCapacityBelowBookings
	}
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.StartTime != nil {
		s.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		s.EndTime = *u.EndTime
	}
	if u.StartTime != nil && u.EndTime != nil {
		s.DurationMinutes = int(u.EndTime.Sub(*u.StartTime).Minutes())
	}
	if u.MaxBookings != nil {
		s.MaxBookings = *u.MaxBookings
	}
	if u.MeetingLocation != nil {
		s.MeetingLocation = *u.MeetingLocation
	}
	if u.OfficeAddress != nil {
		s.OfficeAddress = *u.OfficeAddress
	}
	if u.MeetingURL != nil {
		s.MeetingURL = *u.MeetingURL
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	normalizeStatus(s)
	s.UpdatedAt = now
	cp := *s
	return &cp, nil
}

func (r *memSlots) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return meetingserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return meetingserrors.ErrSlotNotFound
	}
	if s.CurrentBookings != 0 {
		return meetingserrors.ErrSlotHasBookings
	}
	delete(r.slots, id)
	return nil
}

func availablePred(from, to time.Time) func(*model.MeetingSlot) bool {
	return func(s *model.MeetingSlot) bool {
		return s.Status == model.SlotAvailable &&
			s.CurrentBookings < s.MaxBookings &&
			!s.StartTime.Before(from) && !s.StartTime.After(to)
	}
}

func (r *memSlots) FindAvailable(ctx context.Context, from, to time.Time, ids []string) ([]*model.MeetingSlot, error) {
	allowed := map[string]bool{}
	for _, id := range ids {
		allowed[id] = true
	}
	pred := availablePred(from, to)
	return r.matching(func(s *model.MeetingSlot) bool {
		return pred(s) && (len(ids) == 0 || allowed[s.ID])
	}), nil
}

func (r *memSlots) CountAvailable(ctx context.Context, from, to time.Time) (int64, error) {
	return int64(len(r.matching(availablePred(from, to)))), nil
}

func (r *memSlots) Reserve(ctx context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok || !s.Bookable(now) {
		return meetingserrors.ErrSlotUnavailable
	}
	s.CurrentBookings++
	normalizeStatus(s)
	s.UpdatedAt = now
	return nil
}

func (r *memSlots) Release(ctx context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok || s.CurrentBookings == 0 {
		return meetingserrors.ErrSlotNotFound
	}
	s.CurrentBookings--
	normalizeStatus(s)
	s.UpdatedAt = now
	return nil
}

func (r *memSlots) UpsertGenerated(ctx context.Context, slots []*model.MeetingSlot) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var created int64
	for _, in := range slots {
		exists := false
		for _, s := range r.slots {
			if s.Generated && s.StartTime.Equal(in.StartTime) && s.MeetingType == in.MeetingType {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		cp := *in
		cp.ID = newID()
		r.slots[cp.ID] = &cp
		created++
	}
	return created, nil
}

// tokens

type memTokens struct{ *memStore }

var _ repository.TokenRepository = (*memTokens)(nil)

func (r *memTokens) Create(ctx context.Context, t *model.BookingToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = newID()
	cp := *t
	r.tokens[t.TokenHash] = &cp
	return nil
}

func (r *memTokens) FindByHash(ctx context.Context, hash string) (*model.BookingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok {
		return nil, meetingserrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTokens) Consume(ctx context.Context, hash string, now time.Time) (*model.BookingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	switch {
	case !ok:
		return nil, meetingserrors.ErrTokenNotFound
	case t.Expired(now):
		return nil, meetingserrors.ErrTokenExpired
	case t.Used:
		return nil, meetingserrors.ErrTokenUsed
	}
	t.Used = true
	t.UsedAt = &now
	cp := *t
	return &cp, nil
}

// bookings

type memBookings struct{ *memStore }

var _ repository.BookingRepository = (*memBookings)(nil)

func (r *memBookings) Create(ctx context.Context, b *model.MeetingBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bookings {
		if existing.TokenID == b.TokenID {
			return meetingserrors.ErrDuplicateBooking
		}
	}
	b.ID = newID()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memBookings) FindByID(ctx context.Context, id string) (*model.MeetingBooking, error) {
	if !validID(id) {
		return nil, meetingserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, meetingserrors.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBookings) filtered(f model.BookingFilter) []*model.MeetingBooking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MeetingBooking
	for _, b := range r.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Search != "" {
			term := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(b.CompanyName+" "+b.ContactName+" "+b.Email), term) {
				continue
			}
		}
		cp := *b
		out = append(out, &cp)
	}
	return out
}

func (r *memBookings) List(ctx context.Context, f model.BookingFilter) ([]*model.MeetingBooking, error) {
	return r.filtered(f), nil
}

func (r *memBookings) Count(ctx context.Context, f model.BookingFilter) (int64, error) {
	return int64(len(r.filtered(f))), nil
}

func (r *memBookings) Transition(ctx context.Context, id string, c repository.StatusChange) (*model.MeetingBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || !model.CanTransition(b.Status, c.To) {
		return nil, meetingserrors.ErrInvalidTransition
	}
	b.Status = c.To
	b.UpdatedAt = c.At
	switch c.To {
	case model.BookingCancelled:
		b.CancelledAt = &c.At
		b.CancellationReason = c.CancellationReason
	case model.BookingCompleted:
		b.CompletedAt = &c.At
	case model.BookingConfirmed:
		b.ConfirmedAt = &c.At
	}
	cp := *b
	return &cp, nil
}

func (r *memBookings) MarkConfirmationSent(ctx context.Context, id, emailID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMarkSent != nil {
		return r.failMarkSent
	}
	b, ok := r.bookings[id]
	if !ok {
		return meetingserrors.ErrBookingNotFound
	}
	b.ConfirmationSent = true
	b.ConfirmationEmailID = emailID
	return nil
}

// leads

type memLeads struct{ *memStore }

var _ repository.LeadRepository = (*memLeads)(nil)

func (r *memLeads) Create(ctx context.Context, l *model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = newID()
	cp := *l
	r.leads[l.ID] = &cp
	return nil
}

func (r *memLeads) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	if !validID(id) {
		return nil, meetingserrors.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, meetingserrors.ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLeads) TouchLastContacted(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return meetingserrors.ErrLeadNotFound
	}
	l.LastContactedAt = &at
	return nil
}

// activities

type memActivities struct{ *memStore }

var _ repository.ActivityRepository = (*memActivities)(nil)

func (r *memActivities) Insert(ctx context.Context, a *model.LeadActivity) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activities[a.EventID]; ok {
		return false, nil
	}
	a.ID = newID()
	cp := *a
	r.activities[a.EventID] = &cp
	return true, nil
}

func (r *memActivities) ListByLead(ctx context.Context, leadID string, limit int, offset int64) ([]*model.LeadActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.LeadActivity
	for _, a := range r.activities {
		if a.LeadID == leadID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memActivities) CountByLead(ctx context.Context, leadID string) (int64, error) {
	list, _ := r.ListByLead(ctx, leadID, 0, 0)
	return int64(len(list)), nil
}

// notifier and publisher

type fakeNotifier struct {
	mu              sync.Mutex
	confirmationErr error
	proposalErr     error
	delay           time.Duration
	confirmations   []notification.ConfirmationData
	proposals       []notification.ProposalData
}

// SendConfirmation waits delay like a slow provider, giving up when ctx ends.
func (f *fakeNotifier) SendConfirmation(ctx context.Context, data notification.ConfirmationData) (notification.SendResult, error) {
	f.mu.Lock()
	f.confirmations = append(f.confirmations, data)
	delay, sendErr := f.delay, f.confirmationErr
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return notification.SendResult{Attempts: 1}, ctx.Err()
		case <-timer.C:
		}
	}
	if sendErr != nil {
		return notification.SendResult{Attempts: 3}, sendErr
	}
	return notification.SendResult{EmailID: "email-" + data.BookingID, Attempts: 1}, nil
}

func (f *fakeNotifier) SendProposal(ctx context.Context, data notification.ProposalData) (notification.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proposals = append(f.proposals, data)
	if f.proposalErr != nil {
		return notification.SendResult{}, f.proposalErr
	}
	return notification.SendResult{EmailID: "proposal-1", Attempts: 1}, nil
}

func (f *fakeNotifier) Admin() notification.AdminContact {
	return notification.AdminContact{Name: "GLEC 담당자", Email: "contact@glec.io", Phone: "02-1234-5678"}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
