package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

const apiKeyPrefix = "bk_"

// APIKeyService issues per-user API keys and authenticates API requests.
type APIKeyService struct {
	repos    ports.Repositories
	notifier *Notifier
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
}

func NewAPIKeyService(repos ports.Repositories, notifier *Notifier, log zerolog.Logger, opts ...Option) *APIKeyService {
	o := buildOptions(opts)
	return &APIKeyService{repos: repos, notifier: notifier, now: o.now, newID: o.newID, log: log}
}

func hashAPIKey(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Issue creates the actor's key and returns the plain secret, which is not
// stored and cannot be shown again.
func (s *APIKeyService) Issue(ctx context.Context, actor *domain.User) (string, *domain.APIKey, error) {
	if actor == nil {
		return "", nil, domain.ErrUnauthorized
	}
	if _, err := s.repos.APIKeys.FindByOwner(ctx, actor.ID); err == nil {
		return "", nil, domain.ErrDuplicateRequest
	} else if !errors.Is(err, domain.ErrAPIKeyNotFound) {
		return "", nil, err
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("generate api key: %w", err)
	}
	plain := apiKeyPrefix + hex.EncodeToString(raw)
	key := &domain.APIKey{
		ID:        s.newID(),
		OwnerID:   actor.ID,
		KeyHash:   hashAPIKey(plain),
		Prefix:    plain[:len(apiKeyPrefix)+6],
		Usage:     map[string]int64{},
		CreatedAt: s.now(),
	}
	if err := s.repos.APIKeys.Create(ctx, key); err != nil {
		return "", nil, err
	}
	s.log.Info().Str("user_id", actor.ID).Msg("api key issued")
	return plain, key, nil
}

func (s *APIKeyService) Get(ctx context.Context, actor *domain.User) (*domain.APIKey, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.repos.APIKeys.FindByOwner(ctx, actor.ID)
}

// Revoke deletes the actor's key.
func (s *APIKeyService) Revoke(ctx context.Context, actor *domain.User) error {
	key, err := s.Get(ctx, actor)
	if err != nil {
		return err
	}
	return s.repos.APIKeys.Delete(ctx, key.ID)
}

// SetBlocked blocks or unblocks ownerID's key and tells the owner.
func (s *APIKeyService) SetBlocked(ctx context.Context, actor *domain.User, ownerID string, blocked bool) (ports.Outcome, error) {
	if err := requireAdmin(actor); err != nil {
		return ports.Outcome{}, err
	}
	var owner *domain.User
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		owner, err = s.repos.Users.FindByID(ctx, ownerID)
		if err != nil {
			return err
		}
		key, err := s.repos.APIKeys.FindByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if err := s.repos.APIKeys.SetBlocked(ctx, key.ID, blocked); err != nil {
			return fmt.Errorf("set blocked: %w", err)
		}
		cat, body := domain.CategoryUnblock, "Your API key was unblocked."
		if blocked {
			cat, body = domain.CategoryBlock, "Your API key was blocked."
		}
		return s.repos.Notifications.Create(ctx, &domain.Notification{
			ID:          s.newID(),
			RecipientID: owner.ID,
			Category:    cat,
			ActorName:   actor.Name,
			ActorEmail:  actor.Email,
			Body:        body,
			Date:        s.now(),
		})
	})
	if err != nil {
		return ports.Outcome{}, err
	}
	s.log.Info().Str("user_id", ownerID).Bool("blocked", blocked).Msg("api key status changed")

	out := ports.Outcome{Applied: true}
	out.NotifyErr = s.notifier.Send(ctx, owner.Email, apiKeyBlockMessage(blocked))
	return out, nil
}

// Authenticate resolves plain to its owner and counts one call to endpoint.
func (s *APIKeyService) Authenticate(ctx context.Context, plain, endpoint string) (*domain.User, error) {
	if plain == "" {
		return nil, domain.ErrUnauthorized
	}
	key, err := s.repos.APIKeys.FindByHash(ctx, hashAPIKey(plain))
	if err != nil {
		if errors.Is(err, domain.ErrAPIKeyNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if key.Blocked {
		return nil, domain.ErrAPIKeyBlocked
	}
	owner, err := s.repos.Users.FindByID(ctx, key.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := s.repos.APIKeys.IncrementUsage(ctx, key.ID, endpoint); err != nil {
		return nil, fmt.Errorf("record usage: %w", err)
	}
	return owner, nil
}
