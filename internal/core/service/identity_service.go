package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

const minPasswordLen = 8

// Confirmer sends the email-verify link after registration.
type Confirmer interface {
	SendConfirmation(ctx context.Context, u *domain.User) (ports.Outcome, error)
}

// IdentityService implements registration, login and account deletion.
type IdentityService struct {
	repos      ports.Repositories
	scrubber   *Scrubber
	validate   *validator.Validate
	confirmer  Confirmer
	jwtSecret  string
	sessionTTL time.Duration
	now        func() time.Time
	newID      func() string
	log        zerolog.Logger
}

func NewIdentityService(repos ports.Repositories, scrubber *Scrubber, confirmer Confirmer, jwtSecret string, sessionTTL time.Duration, log zerolog.Logger, opts ...Option) *IdentityService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	o := buildOptions(opts)
	return &IdentityService{
		repos:      repos,
		scrubber:   scrubber,
		validate:   validator.New(),
		confirmer:  confirmer,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		now:        o.now,
		newID:      o.newID,
		log:        log,
	}
}

// Register creates an unconfirmed account and sends its confirmation link.
// The account exists even when the link could not be delivered.
func (s *IdentityService) Register(ctx context.Context, email, name, password string) (*domain.User, ports.Outcome, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if name == "" || len(password) < minPasswordLen {
		return nil, ports.Outcome{}, domain.ErrInvalidCredentials
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, ports.Outcome{}, domain.ErrInvalidCredentials
	}

	if _, err := s.repos.Users.FindByEmail(ctx, email); err == nil {
		return nil, ports.Outcome{}, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, ports.Outcome{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ports.Outcome{}, err
	}

	user := &domain.User{
		ID:           s.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, ports.Outcome{}, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")

	out := ports.Outcome{Applied: true}
	if s.confirmer != nil {
		sent, err := s.confirmer.SendConfirmation(ctx, user)
		if err != nil {
			out.NotifyErr = err
		} else {
			out.Link, out.NotifyErr = sent.Link, sent.NotifyErr
		}
	}
	return user, out, nil
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *IdentityService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repos.Users.FindByID(ctx, id)
}

// Delete removes the identity and, in the same transaction, everything that
// no longer resolves to a live owner.
func (s *IdentityService) Delete(ctx context.Context, id string) (ports.ScrubReport, error) {
	var report ports.ScrubReport
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Users.FindByID(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Users.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		var err error
		report, err = s.scrubber.Sweep(ctx)
		return err
	})
	if err != nil {
		return ports.ScrubReport{}, err
	}
	s.scrubber.publish(report)
	s.log.Info().Str("user_id", id).Int("removed", report.Total()).Msg("user deleted")
	return report, nil
}

func (s *IdentityService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     s.now().Add(s.sessionTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
