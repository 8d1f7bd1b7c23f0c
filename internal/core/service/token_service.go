package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/metrics"
)

// capabilityClaims is the payload of a capability token. The purpose is also
// mixed into the signing key, so a token only verifies under its own purpose.
type capabilityClaims struct {
	Purpose domain.Purpose `json:"prp"`
	jwt.RegisteredClaims
}

// TokenService mints and checks stateless, purpose-scoped capability tokens.
// It performs no I/O and is safe for concurrent use.
type TokenService struct {
	secret []byte
	now    func() time.Time
	log    zerolog.Logger
}

func NewTokenService(secret string, log zerolog.Logger, opts ...Option) *TokenService {
	o := buildOptions(opts)
	return &TokenService{secret: []byte(secret), now: o.now, log: log}
}

// Issue signs {subject, purpose, issued_at}.
func (s *TokenService) Issue(purpose domain.Purpose, subject string) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("issue token: unknown purpose %q", purpose)
	}
	if subject == "" {
		return "", errors.New("issue token: empty subject")
	}

	claims := capabilityClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key(purpose))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(purpose)).Inc()
	return signed, nil
}

// Verify returns the token subject. It fails closed: anything that does not
// decode and verify under purpose is ErrTokenInvalid, a token signed for a
// different purpose is ErrPurposeMismatch, and one older than maxAge is
// ErrTokenExpired.
func (s *TokenService) Verify(token string, purpose domain.Purpose, maxAge time.Duration) (string, error) {
	subject, err := s.verify(token, purpose, maxAge)
	metrics.TokensVerifiedTotal.WithLabelValues(string(purpose), verifyResult(err)).Inc()
	if err != nil {
		s.log.Debug().Str("purpose", string(purpose)).Err(err).Msg("token rejected")
	}
	return subject, err
}

func (s *TokenService) verify(token string, purpose domain.Purpose, maxAge time.Duration) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("%w: unknown purpose %q", domain.ErrTokenInvalid, purpose)
	}

	claims, err := s.parse(token, purpose)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) && s.signedForOtherPurpose(token, purpose) {
			return "", domain.ErrPurposeMismatch
		}
		return "", domain.ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return "", domain.ErrPurposeMismatch
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return "", domain.ErrTokenInvalid
	}

	// iat carries whole seconds, so age is measured at the same resolution.
	age := s.now().Truncate(time.Second).Sub(claims.IssuedAt.Time)
	if age < 0 {
		return "", domain.ErrTokenInvalid
	}
	if age > maxAge {
		return "", domain.ErrTokenExpired
	}
	return claims.Subject, nil
}

func (s *TokenService) parse(token string, purpose domain.Purpose) (*capabilityClaims, error) {
	claims := &capabilityClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key(purpose), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// signedForOtherPurpose reports whether token carries a genuine signature for
// a purpose other than expected.
func (s *TokenService) signedForOtherPurpose(token string, expected domain.Purpose) bool {
	unverified := &capabilityClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, unverified); err != nil {
		return false
	}
	claimed := unverified.Purpose
	if claimed == expected || !claimed.Valid() {
		return false
	}
	_, err := s.parse(token, claimed)
	return err == nil
}

// key derives the HMAC key for purpose from the server secret.
func (s *TokenService) key(purpose domain.Purpose) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte("capability:"))
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}

func verifyResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrPurposeMismatch):
		return "purpose_mismatch"
	default:
		return "invalid"
	}
}
