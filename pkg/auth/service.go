package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/ieltsgenai/prep-service/pkg/metrics"
	"github.com/ieltsgenai/prep-service/pkg/model"
	"github.com/ieltsgenai/prep-service/pkg/repository"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrAccountLocked      = errors.New("auth: account locked after too many failed attempts")
	ErrRecaptchaRejected  = errors.New("auth: recaptcha verification failed")
	ErrSessionExpired     = errors.New("auth: session expired")
	ErrInvalidInput       = errors.New("auth: invalid registration data")
)

const (
	bcryptCost        = 12
	maxFailedAttempts = 5
	minPasswordLength = 8
)

// Service concentra cadastro, login, logout e validação de sessão.
// Todo o estado vive nos repositórios externos; o serviço em si é
// stateless e seguro para invocações Lambda concorrentes.
type Service struct {
	users     *repository.UserRepository
	sessions  repository.SessionRepository
	recaptcha *RecaptchaVerifier
	metrics   metrics.Provider
	ttl       time.Duration
	validate  *validator.Validate

	// Injetável nos testes de expiração
	now func() time.Time
}

func NewService(
	users *repository.UserRepository,
	sessions repository.SessionRepository,
	recaptcha *RecaptchaVerifier,
	provider metrics.Provider,
	ttl time.Duration,
) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		recaptcha: recaptcha,
		metrics:   provider,
		ttl:       ttl,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Register cadastra um usuário com hash bcrypt (custo 12).
func (s *Service) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login autentica e emite uma sessão nova (token uuid, TTL configurado).
// A verificação reCAPTCHA acontece ANTES de tocar a tabela de usuários.
func (s *Service) Login(ctx context.Context, email, password, captchaToken, remoteIP string) (*model.Session, error) {
	if !s.recaptcha.Verify(ctx, captchaToken, remoteIP) {
		_ = s.metrics.Count(metrics.MetricRecaptchaRejected, 1, nil)
		return nil, ErrRecaptchaRejected
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.metrics.Count(metrics.MetricLoginFailure, 1, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Status == model.UserStatusLocked || user.FailedAttempts >= maxFailedAttempts {
		_ = s.metrics.Count(metrics.MetricLoginLocked, 1, nil)
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		total, incErr := s.users.IncrementFailedAttempts(ctx, email)
		if incErr != nil {
			log.Ctx(ctx).Error().Err(incErr).Msg("failed attempt counter update failed")
		} else if total >= maxFailedAttempts {
			user.FailedAttempts = total
			if lockErr := s.users.Lock(ctx, user); lockErr != nil {
				log.Ctx(ctx).Error().Err(lockErr).Msg("account lock failed")
			}
		}
		_ = s.metrics.Count(metrics.MetricLoginFailure, 1, nil)
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordLogin(ctx, user); err != nil {
		return nil, err
	}

	now := s.now()
	session := model.Session{
		Token:     uuid.NewString(),
		Email:     user.Email,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	_ = s.metrics.Count(metrics.MetricLoginSuccess, 1, nil)
	return &session, nil
}

// ValidateSession resolve o cookie em uma sessão viva. Sessão expirada
// é removida do store na hora (além do TTL server-side).
func (s *Service) ValidateSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, repository.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		_ = s.metrics.Count(metrics.MetricSessionExpired, 1, nil)
		if delErr := s.sessions.Delete(ctx, token); delErr != nil {
			log.Ctx(ctx).Warn().Err(delErr).Msg("expired session cleanup failed")
		}
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Logout descarta a sessão; token desconhecido não é erro.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

// SessionTTL expõe o TTL configurado (usado no Max-Age do cookie).
func (s *Service) SessionTTL() time.Duration { return s.ttl }

// WithClock troca o relógio do serviço (apenas testes).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
