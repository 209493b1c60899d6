package postgres

import (
	"github.com/disasterline/alert-backend/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Users     ports.UserRepository
	Profiles  ports.ProfileRepository
	Reports   ports.ReportRepository
	Alerts    ports.AlertRepository
	SMSAlerts ports.SMSAlertRepository
	Outbox    ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:     &userRepository{db: db},
		Profiles:  &profileRepository{db: db},
		Reports:   &reportRepository{db: db},
		Alerts:    &alertRepository{db: db},
		SMSAlerts: &smsAlertRepository{db: db},
		Outbox:    &outboxRepository{db: db},
	}
}
