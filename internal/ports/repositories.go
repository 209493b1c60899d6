package ports

import (
	"context"
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/google/uuid"
)

// CreateUserParams captures the columns written at signup.
type CreateUserParams struct {
	Name             string
	Age              *int
	Phone            string
	Email            string
	PasswordHash     string
	Location         string
	Region           string
	EmergencyContact string
	Role             domain.Role
	CreatedAt        time.Time
}

// UserRepository is the credential store adapter.
// Email uniqueness is enforced by the store; a violation surfaces as domain.ErrDuplicateEmail.
type UserRepository interface {
	CreateWithOutboxTx(ctx context.Context, params CreateUserParams, event OutboxEvent) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateContact(ctx context.Context, userID int64, update domain.ContactUpdate) error
	DeleteWithOutboxTx(ctx context.Context, userID int64, event OutboxEvent) error
	ListPhones(ctx context.Context) ([]string, error)
}

// ProfileRepository reads the optional profile row of a user.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error)
}

type CreateReportParams struct {
	UserID       int64
	Location     string
	DisasterType string
	Description  string
	CreatedAt    time.Time
}

type ReportRepository interface {
	Create(ctx context.Context, params CreateReportParams) (domain.Report, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Report, error)
}

type CreateAlertParams struct {
	DisasterType string
	Location     string
	Latitude     *float64
	Longitude    *float64
	AlertMessage string
	ShelterInfo  string
	Status       string
	Timestamp    time.Time
}

type AlertRepository interface {
	CreateWithOutboxTx(ctx context.Context, params CreateAlertParams, event OutboxEvent) (domain.Alert, error)
	ListRecent(ctx context.Context) ([]domain.Alert, error)
}

type CreateSMSAlertParams struct {
	DisasterType string
	Message      string
	ShelterInfo  string
	SentToAll    bool
	Timestamp    time.Time
}

// SMSAlertRepository stores broadcast requests together with their dispatch event.
type SMSAlertRepository interface {
	CreateWithOutboxTx(ctx context.Context, params CreateSMSAlertParams, event OutboxEvent) (domain.SMSAlert, error)
	ListRecent(ctx context.Context) ([]domain.SMSAlert, error)
	// GetByID returns domain.ErrNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (domain.SMSAlert, error)
	MarkDispatched(ctx context.Context, id int64, at time.Time) error
}

// OutboxEvent is the write-side event payload prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository supports claim-based publishing so several workers can run at once.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
