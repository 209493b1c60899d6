package application

import (
	"time"

	"github.com/disasterline/alert-backend/internal/ports"
)

// Config holds the use-case policy knobs resolved at bootstrap.
type Config struct {
	// AllowSignupRole lets signup callers pick a non-default role, including admin.
	AllowSignupRole bool
}

type Service struct {
	cfg       Config
	users     ports.UserRepository
	profiles  ports.ProfileRepository
	reports   ports.ReportRepository
	alerts    ports.AlertRepository
	smsAlerts ports.SMSAlertRepository
	alertFeed ports.AlertFeedCache
	sms       ports.SMSSender
	hasher    ports.PasswordHasher
	tokens    ports.TokenService
	nowFn     func() time.Time
}

type Dependencies struct {
	Config    Config
	Users     ports.UserRepository
	Profiles  ports.ProfileRepository
	Reports   ports.ReportRepository
	Alerts    ports.AlertRepository
	SMSAlerts ports.SMSAlertRepository
	AlertFeed ports.AlertFeedCache
	SMS       ports.SMSSender
	Hasher    ports.PasswordHasher
	Tokens    ports.TokenService
	// Clock overrides the wall clock used for created_at and event timestamps.
	Clock func() time.Time
}

func NewService(deps Dependencies) *Service {
	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		cfg:       deps.Config,
		users:     deps.Users,
		profiles:  deps.Profiles,
		reports:   deps.Reports,
		alerts:    deps.Alerts,
		smsAlerts: deps.SMSAlerts,
		alertFeed: deps.AlertFeed,
		sms:       deps.SMS,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		nowFn:     nowFn,
	}
}
