package postgres

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func toDomainUser(m userModel) domain.User {
	return domain.User{
		ID:               m.ID,
		Name:             m.Name,
		Age:              m.Age,
		Phone:            derefString(m.Phone),
		Email:            m.Email,
		PasswordHash:     m.Password,
		Location:         derefString(m.Location),
		Region:           m.Region,
		EmergencyContact: derefString(m.EmergencyContact),
		Role:             domain.Role(m.Role),
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

func toDomainProfile(m profileModel) domain.Profile {
	return domain.Profile{
		UserID:       m.UserID,
		ProfileImage: m.ProfileImage,
		Address:      m.Address,
		JoinedAt:     m.JoinedAt,
	}
}

func toDomainReport(m reportModel) domain.Report {
	return domain.Report{
		ID:           m.ID,
		UserID:       m.UserID,
		Location:     derefString(m.Location),
		DisasterType: derefString(m.DisasterType),
		Description:  derefString(m.Description),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func toDomainAlert(m alertModel) domain.Alert {
	return domain.Alert{
		ID:           m.ID,
		DisasterType: m.DisasterType,
		Location:     m.Location,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		AlertMessage: m.AlertMessage,
		ShelterInfo:  derefString(m.ShelterInfo),
		Status:       m.Status,
		Timestamp:    m.Timestamp.UTC(),
	}
}

func toDomainSMSAlert(m smsAlertModel) domain.SMSAlert {
	return domain.SMSAlert{
		ID:           m.ID,
		DisasterType: m.DisasterType,
		Message:      m.Message,
		ShelterInfo:  derefString(m.ShelterInfo),
		SentToAll:    m.SentToAll,
		Timestamp:    m.Timestamp.UTC(),
		DispatchedAt: m.DispatchedAt,
	}
}

// newOutboxRow builds the outbox row for event. When idKey is set the new row id is stamped
// into the JSON payload under idKey and becomes the partition key.
func newOutboxRow(event ports.OutboxEvent, idKey string, id int64) outboxModel {
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	partitionKey := event.PartitionKey
	if idKey != "" {
		var payloadObj map[string]any
		if err := json.Unmarshal(payload, &payloadObj); err == nil {
			payloadObj[idKey] = id
			if adjusted, mErr := json.Marshal(payloadObj); mErr == nil {
				payload = adjusted
			}
		}
		partitionKey = strconv.FormatInt(id, 10)
	}
	return outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: partitionKey,
		Payload:      string(payload),
		CreatedAt:    event.OccurredAt,
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
