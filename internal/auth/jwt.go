package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/monocle-dev/devboard/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims are embedded in short-lived access tokens.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the subject.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// JWT signs access and refresh tokens with separate HMAC secrets.
type JWT struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewJWT(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*JWT, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("token secrets must not be empty")
	}

	return &JWT{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (j *JWT) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := j.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (j *JWT) IssueAccessToken(user *models.User) (string, error) {
	claims := AccessClaims{
		Email:            user.Email,
		Username:         user.Username,
		RegisteredClaims: j.registered(user.ID, j.accessTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.accessSecret)
}

func (j *JWT) IssueRefreshToken(user *models.User) (string, error) {
	claims := RefreshClaims{RegisteredClaims: j.registered(user.ID, j.refreshTTL)}
	// The id makes tokens issued within the same second distinct.
	claims.ID = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.refreshSecret)
}

func (j *JWT) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenString, claims, j.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken returns the user id carried by a valid refresh token.
func (j *JWT) VerifyRefreshToken(tokenString string) (string, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenString, claims, j.refreshSecret); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (j *JWT) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return ErrInvalidToken
	}

	return nil
}
