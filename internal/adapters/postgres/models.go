package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name             string    `gorm:"column:name"`
	Age              *int      `gorm:"column:age"`
	Phone            *string   `gorm:"column:phone"`
	Email            string    `gorm:"column:email"`
	Password         string    `gorm:"column:password"`
	Location         *string   `gorm:"column:location"`
	Region           string    `gorm:"column:region"`
	EmergencyContact *string   `gorm:"column:emergency_contact"`
	Role             string    `gorm:"column:role"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string { return "users" }

type profileModel struct {
	UserID       int64      `gorm:"column:user_id;primaryKey"`
	ProfileImage *string    `gorm:"column:profile_image"`
	Address      *string    `gorm:"column:address"`
	JoinedAt     *time.Time `gorm:"column:joined_at"`
}

func (profileModel) TableName() string { return "profiles" }

type reportModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       int64     `gorm:"column:user_id"`
	Location     *string   `gorm:"column:location"`
	DisasterType *string   `gorm:"column:disaster_type"`
	Description  *string   `gorm:"column:description"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (reportModel) TableName() string { return "reports" }

type alertModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DisasterType string    `gorm:"column:disaster_type"`
	Location     string    `gorm:"column:location"`
	Latitude     *float64  `gorm:"column:latitude"`
	Longitude    *float64  `gorm:"column:longitude"`
	AlertMessage string    `gorm:"column:alert_message"`
	ShelterInfo  *string   `gorm:"column:shelter_info"`
	Status       string    `gorm:"column:status"`
	Timestamp    time.Time `gorm:"column:timestamp"`
}

func (alertModel) TableName() string { return "alerts" }

type smsAlertModel struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	DisasterType string     `gorm:"column:disaster_type"`
	Message      string     `gorm:"column:message"`
	ShelterInfo  *string    `gorm:"column:shelter_info"`
	SentToAll    bool       `gorm:"column:sent_to_all"`
	Timestamp    time.Time  `gorm:"column:timestamp"`
	DispatchedAt *time.Time `gorm:"column:dispatched_at"`
}

func (smsAlertModel) TableName() string { return "sms_alerts" }

type outboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (outboxModel) TableName() string { return "outbox_events" }
