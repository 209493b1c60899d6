// Package testutil provides in-memory port implementations shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"github.com/google/uuid"
)

// Users is a map-backed ports.UserRepository.
type Users struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User
	Events []ports.OutboxEvent
	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users {
	return &Users{byID: make(map[int64]domain.User)}
}

func (f *Users) CreateWithOutboxTx(_ context.Context, params ports.CreateUserParams, event ports.OutboxEvent) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return domain.User{}, f.Err
	}
	for _, u := range f.byID {
		if u.Email == params.Email {
			return domain.User{}, domain.ErrDuplicateEmail
		}
	}
	f.nextID++
	u := domain.User{
		ID:               f.nextID,
		Name:             params.Name,
		Age:              params.Age,
		Phone:            params.Phone,
		Email:            params.Email,
		PasswordHash:     params.PasswordHash,
		Location:         params.Location,
		Region:           params.Region,
		EmergencyContact: params.EmergencyContact,
		Role:             params.Role,
		CreatedAt:        params.CreatedAt,
	}
	f.byID[u.ID] = u
	event.PartitionKey = strconv.FormatInt(u.ID, 10)
	f.Events = append(f.Events, event)
	return u, nil
}

// Put stores u as-is, assigning an id when u.ID is zero.
func (f *Users) Put(u domain.User) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	} else if u.ID > f.nextID {
		f.nextID = u.ID
	}
	f.byID[u.ID] = u
	return u
}

func (f *Users) GetByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return domain.User{}, f.Err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (f *Users) GetByID(_ context.Context, userID int64) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return domain.User{}, f.Err
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *Users) List(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Users) UpdateContact(_ context.Context, userID int64, update domain.ContactUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Phone = update.Phone
	u.Location = update.Location
	u.Region = update.Region
	u.EmergencyContact = update.EmergencyContact
	f.byID[userID] = u
	return nil
}

func (f *Users) DeleteWithOutboxTx(_ context.Context, userID int64, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.byID[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, userID)
	f.Events = append(f.Events, event)
	return nil
}

func (f *Users) ListPhones(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	ids := make([]int64, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []string
	for _, id := range ids {
		if phone := f.byID[id].Phone; phone != "" {
			out = append(out, phone)
		}
	}
	return out, nil
}

// Profiles is a map-backed ports.ProfileRepository.
type Profiles struct {
	mu    sync.Mutex
	items map[int64]domain.Profile
}

func NewProfiles() *Profiles {
	return &Profiles{items: make(map[int64]domain.Profile)}
}

func (f *Profiles) Put(p domain.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.UserID] = p
}

func (f *Profiles) GetByUserID(_ context.Context, userID int64) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Reports is a slice-backed ports.ReportRepository.
type Reports struct {
	mu    sync.Mutex
	items []domain.Report
}

func (f *Reports) Create(_ context.Context, params ports.CreateReportParams) (domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := domain.Report{
		ID:           int64(len(f.items) + 1),
		UserID:       params.UserID,
		Location:     params.Location,
		DisasterType: params.DisasterType,
		Description:  params.Description,
		CreatedAt:    params.CreatedAt,
	}
	f.items = append(f.items, r)
	return r, nil
}

func (f *Reports) ListByUser(_ context.Context, userID int64) ([]domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Report
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].UserID == userID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

// Alerts is a slice-backed ports.AlertRepository.
type Alerts struct {
	mu     sync.Mutex
	items  []domain.Alert
	Events []ports.OutboxEvent
	Lists  int
}

func (f *Alerts) CreateWithOutboxTx(_ context.Context, params ports.CreateAlertParams, event ports.OutboxEvent) (domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := domain.Alert{
		ID:           int64(len(f.items) + 1),
		DisasterType: params.DisasterType,
		Location:     params.Location,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		AlertMessage: params.AlertMessage,
		ShelterInfo:  params.ShelterInfo,
		Status:       params.Status,
		Timestamp:    params.Timestamp,
	}
	f.items = append(f.items, a)
	f.Events = append(f.Events, event)
	return a, nil
}

func (f *Alerts) ListRecent(_ context.Context) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lists++
	out := make([]domain.Alert, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		out = append(out, f.items[i])
	}
	return out, nil
}

// SMSAlerts is a slice-backed ports.SMSAlertRepository.
type SMSAlerts struct {
	mu     sync.Mutex
	items  []domain.SMSAlert
	Events []ports.OutboxEvent
	// MarkErr, when set, is returned by MarkDispatched.
	MarkErr error
}

func (f *SMSAlerts) CreateWithOutboxTx(_ context.Context, params ports.CreateSMSAlertParams, event ports.OutboxEvent) (domain.SMSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := domain.SMSAlert{
		ID:           int64(len(f.items) + 1),
		DisasterType: params.DisasterType,
		Message:      params.Message,
		ShelterInfo:  params.ShelterInfo,
		SentToAll:    params.SentToAll,
		Timestamp:    params.Timestamp,
	}
	f.items = append(f.items, a)
	f.Events = append(f.Events, stampPayload(event, "sms_alert_id", a.ID))
	return a, nil
}

func (f *SMSAlerts) ListRecent(_ context.Context) ([]domain.SMSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SMSAlert, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		out = append(out, f.items[i])
	}
	return out, nil
}

func (f *SMSAlerts) GetByID(_ context.Context, id int64) (domain.SMSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.items {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.SMSAlert{}, domain.ErrNotFound
}

func (f *SMSAlerts) MarkDispatched(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MarkErr != nil {
		return f.MarkErr
	}
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].DispatchedAt == nil {
			dispatched := at
			f.items[i].DispatchedAt = &dispatched
		}
	}
	return nil
}

func stampPayload(event ports.OutboxEvent, key string, id int64) ports.OutboxEvent {
	var obj map[string]any
	if err := json.Unmarshal(event.Payload, &obj); err == nil {
		obj[key] = id
		if raw, err := json.Marshal(obj); err == nil {
			event.Payload = raw
		}
	}
	return event
}

// AlertFeed is an in-memory ports.AlertFeedCache.
type AlertFeed struct {
	mu            sync.Mutex
	alerts        []domain.Alert
	warm          bool
	Invalidations int
	Err           error
}

func (f *AlertFeed) Get(context.Context) ([]domain.Alert, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, false, f.Err
	}
	if !f.warm {
		return nil, false, nil
	}
	return append([]domain.Alert(nil), f.alerts...), true, nil
}

func (f *AlertFeed) Set(_ context.Context, alerts []domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.alerts = append([]domain.Alert(nil), alerts...)
	f.warm = true
	return nil
}

func (f *AlertFeed) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Invalidations++
	f.alerts = nil
	f.warm = false
	return f.Err
}

// SentSMS is one message captured by SMSSender.
type SentSMS struct {
	To   string
	Body string
}

// SMSSender records sends; numbers listed in Fail are rejected.
type SMSSender struct {
	mu   sync.Mutex
	Sent []SentSMS
	Fail map[string]bool
}

func (f *SMSSender) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail[to] {
		return errors.New("carrier rejected " + to)
	}
	f.Sent = append(f.Sent, SentSMS{To: to, Body: body})
	return nil
}

// Hasher is a reversible ports.PasswordHasher for tests.
type Hasher struct{}

func (Hasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (Hasher) Verify(hash, password string) bool { return hash == "hash:"+password }

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Outbox is an in-memory ports.OutboxRepository with claim semantics.
type Outbox struct {
	mu      sync.Mutex
	records map[uuid.UUID]*ports.OutboxRecord
	order   []uuid.UUID
}

func NewOutbox() *Outbox {
	return &Outbox{records: make(map[uuid.UUID]*ports.OutboxRecord)}
}

func (f *Outbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[event.EventID] = &ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      event.Payload,
		CreatedAt:    event.OccurredAt,
	}
	f.order = append(f.order, event.EventID)
	return nil
}

func (f *Outbox) ClaimUnpublished(_ context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.OutboxRecord
	for _, id := range f.order {
		if len(out) >= limit {
			break
		}
		rec := f.records[id]
		if rec.PublishedAt != nil || rec.DeadLetteredAt != nil || rec.ClaimToken != nil {
			continue
		}
		token := claimToken
		until := claimUntil
		rec.ClaimToken = &token
		rec.ClaimUntil = &until
		out = append(out, *rec)
	}
	return out, nil
}

func (f *Outbox) MarkPublished(_ context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error {
	return f.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.PublishedAt = &at
	})
}

func (f *Outbox) MarkFailed(_ context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return f.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.RetryCount++
		rec.LastError = &errMsg
		rec.LastErrorAt = &at
	})
}

func (f *Outbox) MarkDeadLettered(_ context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return f.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.RetryCount++
		rec.LastError = &errMsg
		rec.LastErrorAt = &at
		rec.DeadLetteredAt = &at
	})
}

func (f *Outbox) update(outboxID uuid.UUID, claimToken string, apply func(*ports.OutboxRecord)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[outboxID]
	if !ok || rec.ClaimToken == nil || *rec.ClaimToken != claimToken {
		return nil
	}
	apply(rec)
	rec.ClaimToken = nil
	rec.ClaimUntil = nil
	return nil
}

// Record returns a copy of the stored record.
func (f *Outbox) Record(outboxID uuid.UUID) (ports.OutboxRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[outboxID]
	if !ok {
		return ports.OutboxRecord{}, false
	}
	return *rec, true
}
