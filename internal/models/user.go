package models

import "time"

type User struct {
	BaseModel `bson:",inline"`

	Username        string `gorm:"uniqueIndex;not null" bson:"username"`
	Email           string `gorm:"uniqueIndex;not null" bson:"email"`
	Fullname        string `gorm:"not null" bson:"fullname"`
	PasswordHash    string `gorm:"not null" bson:"password_hash" json:"-"`
	IsEmailVerified bool   `gorm:"not null;default:false" bson:"is_email_verified"`

	// Ephemeral credentials. Only hashes of one-time tokens are stored.
	RefreshToken            string     `bson:"refresh_token,omitempty" json:"-"`
	ForgotPasswordToken     string     `gorm:"index" bson:"forgot_password_token,omitempty" json:"-"`
	ForgotPasswordExpiry    *time.Time `bson:"forgot_password_expiry,omitempty" json:"-"`
	EmailVerificationToken  string     `gorm:"index" bson:"email_verification_token,omitempty" json:"-"`
	EmailVerificationExpiry *time.Time `bson:"email_verification_expiry,omitempty" json:"-"`
}

// SetEmailVerification stores a verification hash and expiry, replacing any previous pair.
func (u *User) SetEmailVerification(hash string, expiry time.Time) {
	u.EmailVerificationToken = hash
	u.EmailVerificationExpiry = &expiry
}

// ClearEmailVerification drops the verification pair.
func (u *User) ClearEmailVerification() {
	u.EmailVerificationToken = ""
	u.EmailVerificationExpiry = nil
}

// SetPasswordReset stores a reset hash and expiry, replacing any previous pair.
func (u *User) SetPasswordReset(hash string, expiry time.Time) {
	u.ForgotPasswordToken = hash
	u.ForgotPasswordExpiry = &expiry
}

// ClearPasswordReset drops the reset pair.
func (u *User) ClearPasswordReset() {
	u.ForgotPasswordToken = ""
	u.ForgotPasswordExpiry = nil
}
