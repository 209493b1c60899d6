package domain

import "time"

// Role is the closed set of authorization roles an identity can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role value against the exact stored spellings.
// An empty value resolves to RoleUser; case or whitespace variants are rejected.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", NewClientError(ErrValidation, "Invalid role")
	}
}

func (r Role) String() string {
	return string(r)
}

// User is a registered identity. PasswordHash never holds plaintext.
type User struct {
	ID               int64
	Name             string
	Age              *int
	Phone            string
	Email            string
	PasswordHash     string
	Location         string
	Region           string
	EmergencyContact string
	Role             Role
	CreatedAt        time.Time
}

// Profile holds the optional presentation details kept beside a user row.
type Profile struct {
	UserID       int64
	ProfileImage *string
	Address      *string
	JoinedAt     *time.Time
}

// ContactUpdate is the set of user fields a profile owner may change.
type ContactUpdate struct {
	Phone            string
	Location         string
	Region           string
	EmergencyContact string
}
