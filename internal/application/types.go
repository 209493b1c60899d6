package application

import (
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
)

type SignupRequest struct {
	Name             string `json:"name" validate:"required"`
	Age              *int   `json:"age"`
	Phone            string `json:"phone"`
	Email            string `json:"email" validate:"required"`
	Password         string `json:"password" validate:"required"`
	Location         string `json:"location"`
	Region           string `json:"region" validate:"required"`
	EmergencyContact string `json:"emergency_contact"`
	Role             string `json:"role"`
}

// PublicUser is the identity projection returned by auth endpoints. It never carries the digest.
type PublicUser struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Region string      `json:"region"`
	Role   domain.Role `json:"role"`
}

type SignupResponse struct {
	User PublicUser `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

type ProfileView struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Region           string      `json:"region"`
	Location         string      `json:"location"`
	Phone            string      `json:"phone"`
	EmergencyContact string      `json:"emergency_contact"`
	Role             domain.Role `json:"role"`
	CreatedAt        time.Time   `json:"created_at"`
	ProfileImage     *string     `json:"profile_image,omitempty"`
	Address          *string     `json:"address,omitempty"`
	JoinedAt         *time.Time  `json:"joined_at,omitempty"`
}

type UpdateProfileRequest struct {
	Phone            string `json:"phone"`
	Location         string `json:"location"`
	Region           string `json:"region"`
	EmergencyContact string `json:"emergency_contact"`
}

type UserSummary struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Region    string      `json:"region"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type CreateReportRequest struct {
	UserID       int64  `json:"user_id" validate:"required"`
	Location     string `json:"location"`
	DisasterType string `json:"disaster_type"`
	Description  string `json:"description"`
}

type ReportView struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Location     string    `json:"location"`
	DisasterType string    `json:"disaster_type"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateAlertRequest struct {
	DisasterType string   `json:"disasterType" validate:"required"`
	Location     string   `json:"location" validate:"required"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	AlertMessage string   `json:"alertMessage" validate:"required"`
	ShelterInfo  string   `json:"shelterInfo"`
}

type AlertView struct {
	ID           int64     `json:"id"`
	DisasterType string    `json:"disaster_type"`
	Location     string    `json:"location"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	AlertMessage string    `json:"alert_message"`
	ShelterInfo  string    `json:"shelter_info"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

type SendSMSRequest struct {
	DisasterType string `json:"disasterType" validate:"required"`
	Message      string `json:"message" validate:"required"`
	ShelterInfo  string `json:"shelterInfo"`
}

type SMSAlertView struct {
	ID           int64      `json:"id"`
	DisasterType string     `json:"disaster_type"`
	Message      string     `json:"message"`
	ShelterInfo  string     `json:"shelter_info"`
	SentToAll    bool       `json:"sent_to_all"`
	Timestamp    time.Time  `json:"timestamp"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

// SMSAlertRequested is the outbox payload consumed by the SMS fan-out worker.
type SMSAlertRequested struct {
	SMSAlertID   int64     `json:"sms_alert_id"`
	DisasterType string    `json:"disaster_type"`
	Message      string    `json:"message"`
	ShelterInfo  string    `json:"shelter_info"`
	RequestedAt  time.Time `json:"requested_at"`
}

// DispatchResult summarizes one SMS fan-out run.
type DispatchResult struct {
	Recipients int
	Delivered  int
	Failed     int

	// AlreadyDispatched reports that an earlier run reached recipients and nothing was sent.
	AlreadyDispatched bool
}

func toPublicUser(u domain.User) PublicUser {
	return PublicUser{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Region: u.Region,
		Role:   u.Role,
	}
}

func toUserSummary(u domain.User) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Region:    u.Region,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func toReportView(r domain.Report) ReportView {
	return ReportView{
		ID:           r.ID,
		UserID:       r.UserID,
		Location:     r.Location,
		DisasterType: r.DisasterType,
		Description:  r.Description,
		CreatedAt:    r.CreatedAt,
	}
}

func toAlertView(a domain.Alert) AlertView {
	return AlertView{
		ID:           a.ID,
		DisasterType: a.DisasterType,
		Location:     a.Location,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
		AlertMessage: a.AlertMessage,
		ShelterInfo:  a.ShelterInfo,
		Status:       a.Status,
		Timestamp:    a.Timestamp,
	}
}

func toSMSAlertView(a domain.SMSAlert) SMSAlertView {
	return SMSAlertView{
		ID:           a.ID,
		DisasterType: a.DisasterType,
		Message:      a.Message,
		ShelterInfo:  a.ShelterInfo,
		SentToAll:    a.SentToAll,
		Timestamp:    a.Timestamp,
		DispatchedAt: a.DispatchedAt,
	}
}
