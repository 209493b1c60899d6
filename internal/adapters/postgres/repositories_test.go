package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func outboxEvent(eventType string) ports.OutboxEvent {
	return ports.OutboxEvent{
		EventID:    uuid.New(),
		EventType:  eventType,
		Payload:    []byte(`{"email":"a@x.com"}`),
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

var userColumns = []string{"id", "name", "age", "phone", "email", "password", "location", "region", "emergency_contact", "role", "created_at"}

func TestUserRepositoryCreateWithOutbox(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Users

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(`INSERT INTO "outbox_events"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := repo.CreateWithOutboxTx(context.Background(), ports.CreateUserParams{
		Name:         "Asha",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$digest",
		Region:       "North",
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}, outboxEvent("user.registered"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID != 7 || user.Role != domain.RoleUser || user.Phone != "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Users

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	_, err := repo.CreateWithOutboxTx(context.Background(), ports.CreateUserParams{
		Name: "Asha", Email: "a@x.com", PasswordHash: "x", Region: "North", Role: domain.RoleUser,
	}, outboxEvent("user.registered"))
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryGetByEmail(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Users
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(3, "Asha", 30, "5550100", "a@x.com", "digest", nil, "North", nil, "admin", created))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if user.ID != 3 || user.Role != domain.RoleAdmin || user.Phone != "5550100" || user.Location != "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Age == nil || *user.Age != 30 {
		t.Fatalf("expected age 30, got %v", user.Age)
	}

	if _, err := repo.GetByEmail(context.Background(), "none@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryListOrdersByID(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Users
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "users" ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "A", nil, nil, "a@x.com", "d", nil, "N", nil, "user", now).
			AddRow(2, "B", nil, nil, "b@x.com", "d", nil, "S", nil, "admin", now))

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 2 || users[1].Role != domain.RoleAdmin {
		t.Fatalf("unexpected users: %+v", users)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryUpdateContactMissingUser(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Users

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateContact(context.Background(), 99, domain.ContactUpdate{Region: "South"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryDeleteWithOutbox(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Users

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "users" WHERE id = \$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "outbox_events"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "users" WHERE id = \$1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.DeleteWithOutboxTx(context.Background(), 5, outboxEvent("user.deleted")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.DeleteWithOutboxTx(context.Background(), 5, outboxEvent("user.deleted")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryListPhones(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Users

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "phone" FROM "users" WHERE phone IS NOT NULL AND phone <> ''`)).
		WillReturnRows(sqlmock.NewRows([]string{"phone"}).AddRow("5550001").AddRow("5550002"))

	phones, err := repo.ListPhones(context.Background())
	if err != nil {
		t.Fatalf("list phones failed: %v", err)
	}
	if len(phones) != 2 || phones[0] != "5550001" {
		t.Fatalf("unexpected phones: %v", phones)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepositoryMissingRow(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Profiles

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "profile_image", "address", "joined_at"}))

	profile, err := repo.GetByUserID(context.Background(), 1)
	if err != nil || profile != nil {
		t.Fatalf("expected nil profile without error, got %+v / %v", profile, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepositoryReturnsStoredRow(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Profiles
	joined := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "profile_image", "address", "joined_at"}).
			AddRow(3, "https://img.example/3.png", "12 Hill Road", joined))

	profile, err := repo.GetByUserID(context.Background(), 3)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile == nil || profile.UserID != 3 {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if profile.ProfileImage == nil || *profile.ProfileImage != "https://img.example/3.png" {
		t.Fatalf("profile image = %v", profile.ProfileImage)
	}
	if profile.Address == nil || *profile.Address != "12 Hill Road" {
		t.Fatalf("address = %v", profile.Address)
	}
	if profile.JoinedAt == nil || !profile.JoinedAt.Equal(joined) {
		t.Fatalf("joined_at = %v", profile.JoinedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestToDomainProfileKeepsNullColumns(t *testing.T) {
	t.Parallel()

	addr := "Shelter B"
	got := toDomainProfile(profileModel{UserID: 9, Address: &addr})
	if got.ProfileImage != nil {
		t.Fatalf("null profile_image must stay nil, got %q", *got.ProfileImage)
	}
	if got.Address == nil || *got.Address != addr {
		t.Fatalf("address = %v", got.Address)
	}
}

func TestAlertRepositoryCreateStampsOutbox(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Alerts

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "alerts"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(`INSERT INTO "outbox_events"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	alert, err := repo.CreateWithOutboxTx(context.Background(), ports.CreateAlertParams{
		DisasterType: "Flood", Location: "Delta", AlertMessage: "Evacuate", Status: domain.AlertStatusActive,
		Timestamp: time.Now().UTC(),
	}, outboxEvent("alert.created"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if alert.ID != 11 || alert.Status != "Active" {
		t.Fatalf("unexpected alert: %+v", alert)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAlertRepositoryListRecent(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Alerts
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "alerts" ORDER BY timestamp DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "disaster_type", "location", "latitude", "longitude", "alert_message", "shelter_info", "status", "timestamp"}).
			AddRow(2, "Fire", "Ridge", 1.5, 2.5, "Leave", "Gym", "Active", now).
			AddRow(1, "Flood", "Delta", nil, nil, "Climb", nil, "Active", now.Add(-time.Hour)))

	alerts, err := repo.ListRecent(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(alerts) != 2 || alerts[0].Latitude == nil || alerts[1].Latitude != nil || alerts[0].ShelterInfo != "Gym" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSMSAlertRepositoryCreateRollsBackOnOutboxFailure(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).SMSAlerts

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "sms_alerts"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec(`INSERT INTO "outbox_events"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.CreateWithOutboxTx(context.Background(), ports.CreateSMSAlertParams{
		DisasterType: "Flood", Message: "Go", SentToAll: true, Timestamp: time.Now().UTC(),
	}, outboxEvent("sms.alert.requested"))
	if err == nil {
		t.Fatalf("expected error when outbox insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReportRepositoryListByUser(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).Reports

	mock.ExpectQuery(`SELECT \* FROM "reports" WHERE user_id = \$1 ORDER BY id DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "location", "disaster_type", "description", "created_at"}).
			AddRow(9, 3, "Town", "Quake", nil, time.Now().UTC()))

	reports, err := repo.ListByUser(context.Background(), 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != 9 || reports[0].Description != "" {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNewOutboxRowStampsID(t *testing.T) {
	t.Parallel()

	row := newOutboxRow(outboxEvent("sms.alert.requested"), "sms_alert_id", 42)
	if row.PartitionKey != "42" {
		t.Fatalf("expected partition key 42, got %q", row.PartitionKey)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["sms_alert_id"] != float64(42) || payload["email"] != "a@x.com" {
		t.Fatalf("unexpected payload: %v", payload)
	}

	plain := newOutboxRow(ports.OutboxEvent{EventID: uuid.New(), PartitionKey: "7"}, "", 0)
	if plain.Payload != "{}" || plain.PartitionKey != "7" {
		t.Fatalf("unexpected plain row: %+v", plain)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("pg 23505 should be a unique violation")
	}
	if !isUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatalf("gorm duplicated key should be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
}

func TestSMSAlertRepositoryGetByID(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).SMSAlerts
	dispatched := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	columns := []string{"id", "disaster_type", "message", "shelter_info", "sent_to_all", "timestamp", "dispatched_at"}

	mock.ExpectQuery(`SELECT \* FROM "sms_alerts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(4, "Flood", "Leave", nil, true, dispatched, dispatched))
	mock.ExpectQuery(`SELECT \* FROM "sms_alerts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns))

	alert, err := repo.GetByID(context.Background(), 4)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if alert.DispatchedAt == nil || !alert.DispatchedAt.Equal(dispatched) || alert.ShelterInfo != "" {
		t.Fatalf("unexpected alert %+v", alert)
	}
	if _, err := repo.GetByID(context.Background(), 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSMSAlertRepositoryMarkDispatchedKeepsFirstTime(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRepositories(db).SMSAlerts

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "sms_alerts" SET "dispatched_at"=\$1 WHERE id = \$2 AND dispatched_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.MarkDispatched(context.Background(), 4, time.Now().UTC()); err != nil {
		t.Fatalf("mark dispatched: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
