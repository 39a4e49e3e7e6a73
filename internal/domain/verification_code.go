package domain

import "time"

// Verification purposes. Open string-valued tags: a code issued for one
// purpose never validates a flow of another.
const (
	PurposeLogin         = "Login"
	PurposeRegister      = "Register"
	PurposeResetPassword = "ResetPassword"
)

// VerificationCode is the ephemeral second factor for password-based flows.
// Validation always targets the most recently issued row for (email, purpose);
// issuing a new code supersedes prior ones.
type VerificationCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index:idx_codes_email_purpose" json:"email"`
	Purpose   string    `gorm:"size:50;not null;index:idx_codes_email_purpose" json:"purpose"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Consumed  bool      `gorm:"not null;default:false" json:"consumed"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	IPAddress *string   `gorm:"size:45" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the code is past its TTL at the given instant.
func (c *VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
