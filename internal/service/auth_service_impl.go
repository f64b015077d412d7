package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/alimikegami/quicart/config"
	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/repository"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/alimikegami/quicart/pkg/utils"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthServiceImpl struct {
	accounts  repository.AccountRepository
	profiles  repository.ProfileRepository
	sessions  repository.SessionRepository
	tx        repository.TxManager
	publisher EventPublisher
	config    config.JWTConfig
	now       func() time.Time
}

func CreateAuthService(accounts repository.AccountRepository, profiles repository.ProfileRepository, sessions repository.SessionRepository, tx repository.TxManager, publisher EventPublisher, config config.JWTConfig) AuthService {
	return &AuthServiceImpl{
		accounts:  accounts,
		profiles:  profiles,
		sessions:  sessions,
		tx:        tx,
		publisher: publisher,
		config:    config,
		now:       time.Now,
	}
}

func (s *AuthServiceImpl) SignUp(ctx context.Context, req dto.SignUpRequest) (session domain.Session, err error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return session, errs.NewValidationError("name", "is required")
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return session, err
	}

	if err = validatePassword(req.Password); err != nil {
		return session, err
	}

	_, err = s.accounts.GetAccountByEmail(ctx, email)
	if err == nil {
		return session, errs.ErrEmailAlreadyUsed
	}
	if !errors.Is(err, errs.ErrAccountNotFound) {
		return session, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "SignUp").Msg("")
		return session, err
	}

	now := s.now()
	account := domain.Account{
		UserID:         ulid.Make().String(),
		Email:          email,
		HashedPassword: string(hash),
		CreatedAt:      now.UnixMilli(),
		UpdatedAt:      now.UnixMilli(),
	}

	err = s.tx.HandleTrx(ctx, func(ctx context.Context) error {
		if err := s.accounts.AddAccount(ctx, account); err != nil {
			return err
		}

		return s.profiles.AddProfile(ctx, domain.UserProfile{
			UserID:      account.UserID,
			Name:        name,
			Email:       email,
			PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		})
	})
	if err != nil {
		return session, err
	}

	return s.issueSession(account)
}

func (s *AuthServiceImpl) SignIn(ctx context.Context, req dto.SignInRequest) (session domain.Session, err error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return session, err
	}

	if err = validatePassword(req.Password); err != nil {
		return session, err
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, errs.ErrAccountNotFound) {
		return session, errs.ErrInvalidCredentialsEmail
	}
	if err != nil {
		return session, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(account.HashedPassword), []byte(req.Password))
	if err != nil {
		return session, errs.ErrInvalidCredentialsEmail
	}

	return s.issueSession(account)
}

func (s *AuthServiceImpl) SignOut(ctx context.Context, claims domain.Claims) (err error) {
	return s.sessions.RevokeToken(ctx, claims.TokenID, claims.ExpiresAt.Sub(s.now()))
}

// SendPasswordReset does not reveal whether the email belongs to an account.
func (s *AuthServiceImpl) SendPasswordReset(ctx context.Context, email string) (err error) {
	email, err = normalizeEmail(email)
	if err != nil {
		return err
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, errs.ErrAccountNotFound) {
		log.Ctx(ctx).Info().Str("component", "SendPasswordReset").Msg("reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err = s.sessions.SavePasswordResetToken(ctx, token, account.UserID, s.config.PasswordResetTTL); err != nil {
		return err
	}

	return s.publisher.Publish(ctx, dto.EventPasswordResetRequested, account.UserID, dto.PasswordResetRequestedEvent{
		Email: account.Email,
		Token: token,
	})
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, req dto.PasswordResetConfirmRequest) (err error) {
	if req.Token == "" {
		return errs.NewValidationError("token", "is required")
	}

	if err = validatePassword(req.Password); err != nil {
		return err
	}

	userID, err := s.sessions.ConsumePasswordResetToken(ctx, req.Token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "ResetPassword").Msg("")
		return err
	}

	return s.accounts.UpdatePassword(ctx, userID, string(hash))
}

func (s *AuthServiceImpl) CurrentUser(ctx context.Context, token string) (claims domain.Claims, err error) {
	if token == "" {
		return claims, errs.ErrNotLoggedIn
	}

	parsed, err := utils.ParseJWTToken(token, s.config.JWTSecret)
	if err != nil {
		return claims, errs.ErrNotLoggedIn
	}

	revoked, err := s.sessions.IsTokenRevoked(ctx, parsed.TokenID)
	if err != nil {
		return claims, err
	}
	if revoked {
		return claims, errs.ErrNotLoggedIn
	}

	return domain.Claims{
		UserID:    parsed.UserID,
		Email:     parsed.Email,
		TokenID:   parsed.TokenID,
		ExpiresAt: parsed.ExpiresAt,
	}, nil
}

func (s *AuthServiceImpl) issueSession(account domain.Account) (session domain.Session, err error) {
	token, expiresAt, err := utils.CreateJWTToken(account.UserID, account.Email, uuid.NewString(), s.config.TokenTTL, s.config.JWTSecret, s.config.JWTKid)
	if err != nil {
		return session, err
	}

	return domain.Session{
		Token:     token,
		UserID:    account.UserID,
		ExpiresAt: expiresAt,
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errs.NewValidationError("email", "is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errs.NewValidationError("email", "is not a valid address")
	}

	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errs.NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}
