package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/auth"
	"github.com/monocle-dev/devboard/internal/mail"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/types"
	"github.com/sirupsen/logrus"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

type TokenIssuer interface {
	IssueAccessToken(user *models.User) (string, error)
	IssueRefreshToken(user *models.User) (string, error)
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
	VerifyRefreshToken(token string) (string, error)
}

type OneTimeTokenFactory interface {
	Generate() (auth.OneTimeToken, error)
	Derive(token string) string
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Fullname string `json:"fullname" validate:"required,max=128"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

var errInvalidCredentials = apperrors.Unauthorized("Invalid credentials")

// IdentityService owns user records and their credentials.
type IdentityService struct {
	users   store.UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	oneTime OneTimeTokenFactory
	mailer  mail.Sender
	links   mail.Links
	logger  logrus.FieldLogger
	now     func() time.Time

	decoyOnce   sync.Once
	decoyDigest string
}

func NewIdentityService(
	users store.UserStore,
	hasher PasswordHasher,
	tokens TokenIssuer,
	oneTime OneTimeTokenFactory,
	mailer mail.Sender,
	links mail.Links,
	logger logrus.FieldLogger,
) *IdentityService {
	return &IdentityService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		oneTime: oneTime,
		mailer:  mailer,
		links:   links,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates an unverified user and mails a verification link.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Username = normalizeKey(input.Username)
	input.Email = normalizeKey(input.Email)
	input.Fullname = strings.TrimSpace(input.Fullname)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	_, err := s.users.FindUserByUsernameOrEmail(ctx, input.Username, input.Email)
	if err == nil {
		return nil, apperrors.Conflict("User already exists with email or username")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	token, err := s.oneTime.Generate()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		Fullname:     input.Fullname,
		PasswordHash: passwordHash,
	}
	user.SetEmailVerification(token.Hash, token.Expiry)

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict("User already exists with email or username")
		}
		return nil, apperrors.Internal(err)
	}

	s.deliver(ctx, user, mail.VerificationMessage(user.Email, user.Username, s.links.VerifyEmail(token.Token)))

	return user, nil
}

func (s *IdentityService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Validation("Verification token is required",
			apperrors.FieldError{Field: "token", Rule: "required"})
	}

	user, err := s.users.FindUserByVerificationToken(ctx, s.oneTime.Derive(token), s.now())
	if err != nil {
		return s.tokenLookupErr(err)
	}

	user.IsEmailVerified = true
	user.ClearEmailVerification()

	if err := s.users.SaveUser(ctx, user); err != nil {
		return apperrors.Internal(err)
	}

	return nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *IdentityService) Login(ctx context.Context, input LoginInput) (*types.LoginResponse, error) {
	input.Email = normalizeKey(input.Email)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByEmail(ctx, input.Email)
	if errors.Is(err, store.ErrNotFound) {
		s.verifyDecoy(input.Password)
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, errInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &types.LoginResponse{
		User:         types.NewUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// verifyDecoy spends the same hashing work as a real password check so an
// unknown email takes as long as a wrong password.
func (s *IdentityService) verifyDecoy(plain string) {
	s.decoyOnce.Do(func() {
		digest, err := s.hasher.Hash("devboard-decoy-password")
		if err != nil {
			s.logger.WithError(err).Warn("Failed to prepare decoy password digest")
			return
		}
		s.decoyDigest = digest
	})

	if s.decoyDigest == "" {
		return
	}
	_, _ = s.hasher.Verify(plain, s.decoyDigest)
}

// Logout revokes the stored refresh token. Repeated calls are harmless.
func (s *IdentityService) Logout(ctx context.Context, userID string) error {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	if user.RefreshToken == "" {
		return nil
	}

	user.RefreshToken = ""
	if err := s.users.SaveUser(ctx, user); err != nil {
		return apperrors.Internal(err)
	}

	return nil
}

func (s *IdentityService) RequestPasswordReset(ctx context.Context, input ForgotPasswordInput) error {
	input.Email = normalizeKey(input.Email)

	if err := validateInput(input); err != nil {
		return err
	}

	user, err := s.users.FindUserByEmail(ctx, input.Email)
	if err != nil {
		return lookupErr(err, "User not found")
	}

	token, err := s.oneTime.Generate()
	if err != nil {
		return apperrors.Internal(err)
	}

	user.SetPasswordReset(token.Hash, token.Expiry)
	if err := s.users.SaveUser(ctx, user); err != nil {
		return apperrors.Internal(err)
	}

	s.deliver(ctx, user, mail.PasswordResetMessage(user.Email, user.Username, s.links.ResetPassword(token.Token)))

	return nil
}

func (s *IdentityService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := validateInput(input); err != nil {
		return err
	}

	if input.NewPassword != input.ConfirmPassword {
		return apperrors.New(apperrors.CodeMismatch, "Passwords do not match")
	}

	user, err := s.users.FindUserByResetToken(ctx, s.oneTime.Derive(input.Token), s.now())
	if err != nil {
		return s.tokenLookupErr(err)
	}

	passwordHash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return apperrors.Internal(err)
	}

	user.PasswordHash = passwordHash
	user.ClearPasswordReset()

	if err := s.users.SaveUser(ctx, user); err != nil {
		return apperrors.Internal(err)
	}

	return nil
}

// RotateKeys issues a fresh token pair for an authenticated user.
func (s *IdentityService) RotateKeys(ctx context.Context, userID string) (*types.TokenPair, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthorized("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.issuePair(ctx, user)
}

// Refresh exchanges the currently stored refresh token for a new pair.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*types.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Validation("Refresh token is required",
			apperrors.FieldError{Field: "refresh_token", Rule: "required"})
	}

	invalid := apperrors.Unauthorized("Invalid refresh token")

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, invalid
	}

	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, invalid
	}

	return s.issuePair(ctx, user)
}

func (s *IdentityService) Me(ctx context.Context, userID string) (*types.UserResponse, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthorized("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	resp := types.NewUserResponse(user)
	return &resp, nil
}

// Authenticate resolves the user behind an access token.
func (s *IdentityService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}

	user, err := s.users.GetUser(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthorized("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return user, nil
}

// SweepExpiredTokens drops one-time token pairs that can no longer be used.
func (s *IdentityService) SweepExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.users.ClearExpiredTokens(ctx, s.now())
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

func (s *IdentityService) issuePair(ctx context.Context, user *models.User) (*types.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user.RefreshToken = refreshToken
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, apperrors.Internal(err)
	}

	return &types.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *IdentityService) tokenLookupErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.New(apperrors.CodeInvalidOrExpired, "Token expired or invalid")
	}
	return apperrors.Internal(err)
}

// deliver sends mail without failing the caller.
func (s *IdentityService) deliver(ctx context.Context, user *models.User, msg mail.Message) {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"subject": msg.Subject,
		}).WithError(err).Error("failed to send mail")
	}
}
