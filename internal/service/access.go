// Package service contains application services for access control, reviews
// and report handling.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/foodfellow/gatekeeper/internal/capability"
	"github.com/foodfellow/gatekeeper/internal/clock"
	pkgcrypto "github.com/foodfellow/gatekeeper/internal/crypto"
	"github.com/foodfellow/gatekeeper/internal/errs"
	"github.com/foodfellow/gatekeeper/internal/guard"
	"github.com/foodfellow/gatekeeper/internal/mail"
	"github.com/foodfellow/gatekeeper/internal/model"
	"github.com/foodfellow/gatekeeper/internal/repository"
)

// LoginStatus is the outcome of a login attempt.
type LoginStatus int

const (
	LoginSuccess LoginStatus = iota
	LoginInvalidPassword
	LoginNoSuchUser
	LoginBlocked
)

// RegisterStatus is the outcome of a registration request.
type RegisterStatus int

const (
	RegisterSuccess RegisterStatus = iota
	RegisterAlready
	RegisterFailure
)

// ActivateStatus is the outcome of consuming an activation token.
type ActivateStatus int

const (
	ActivateSuccess ActivateStatus = iota
	ActivateAlready
	ActivateFailure
)

// ActivationPayload is the state an activation link carries. The plaintext
// password rides inside the encrypted token so no pending-registration
// record is kept server-side; the exposure is documented in DESIGN.md.
type ActivationPayload struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	IssuedAt time.Time `json:"issued_at"`
}

// DefaultActivationTTL is how long an activation token stays valid.
const DefaultActivationTTL = 10 * time.Minute

const activationSubject = "Please activate your account."

// AccessService defines the login, registration and activation workflows.
type AccessService interface {
	// Login verifies credentials for an origin address, recording failures
	// and blacklisting past the threshold.
	Login(ctx context.Context, username, password, address string) (model.Session, LoginStatus, error)
	// Register issues an activation token and mails the activation link.
	Register(ctx context.Context, username, password string) (RegisterStatus, error)
	// Activate consumes an activation token and stores the credential.
	Activate(ctx context.Context, token string) (ActivateStatus, error)
}

type AccessServiceImpl struct {
	users         repository.UserRepository
	guard         guard.Guard
	codec         *capability.Codec
	sender        mail.Sender
	clk           clock.Clock
	signKey       []byte
	accessTTL     time.Duration
	activationTTL time.Duration
	maxFailures   int
	saltLength    int
	baseURL       string
}

// AccessConfig collects the knobs AccessService needs beyond its collaborators.
type AccessConfig struct {
	SignKey       []byte
	AccessTTL     time.Duration
	ActivationTTL time.Duration
	MaxFailures   int
	SaltLength    int
	BaseURL       string
}

// NewAccessService constructs AccessService with required dependencies.
func NewAccessService(
	users repository.UserRepository,
	g guard.Guard,
	codec *capability.Codec,
	sender mail.Sender,
	clk clock.Clock,
	cfg AccessConfig,
) *AccessServiceImpl {
	if cfg.ActivationTTL <= 0 {
		cfg.ActivationTTL = DefaultActivationTTL
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = guard.DefaultMaxFailures
	}
	if cfg.SaltLength <= 0 {
		cfg.SaltLength = pkgcrypto.DefaultSaltLength
	}
	return &AccessServiceImpl{
		users:         users,
		guard:         g,
		codec:         codec,
		sender:        sender,
		clk:           clk,
		signKey:       cfg.SignKey,
		accessTTL:     cfg.AccessTTL,
		activationTTL: cfg.ActivationTTL,
		maxFailures:   cfg.MaxFailures,
		saltLength:    cfg.SaltLength,
		baseURL:       cfg.BaseURL,
	}
}

// Login gates on the blacklist before touching credentials: a blacklisted
// address is rejected even with a correct password. A missing user records
// no failure; only a verified wrong password counts toward the threshold.
func (s *AccessServiceImpl) Login(ctx context.Context, username, password, address string) (model.Session, LoginStatus, error) {
	listed, err := s.guard.IsBlacklisted(ctx, address)
	if err != nil {
		return model.Session{}, LoginBlocked, fmt.Errorf("blacklist check: %w", err)
	}
	if listed {
		return model.Session{}, LoginBlocked, nil
	}

	cred, err := s.users.Get(ctx, username)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Session{}, LoginNoSuchUser, nil
	}
	if err != nil {
		return model.Session{}, LoginInvalidPassword, fmt.Errorf("load credential: %w", err)
	}

	if !pkgcrypto.VerifyPassword(password, cred.PasswordSalt, cred.PasswordHash) {
		if err := s.noteFailure(ctx, address); err != nil {
			return model.Session{}, LoginInvalidPassword, err
		}
		return model.Session{}, LoginInvalidPassword, nil
	}

	sess, err := s.issueSession(username)
	if err != nil {
		return model.Session{}, LoginInvalidPassword, err
	}
	return sess, LoginSuccess, nil
}

// noteFailure records one failure and blacklists the address once the
// recent-failure count reaches the threshold. The count-then-blacklist
// sequence is not atomic across concurrent callers; Blacklist is
// idempotent, so concurrent threshold decisions are harmless.
func (s *AccessServiceImpl) noteFailure(ctx context.Context, address string) error {
	if err := s.guard.RecordFailure(ctx, address); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	n, err := s.guard.CountRecentFailures(ctx, address)
	if err != nil {
		return fmt.Errorf("count failures: %w", err)
	}
	if n >= s.maxFailures {
		if err := s.guard.Blacklist(ctx, address); err != nil {
			return fmt.Errorf("blacklist: %w", err)
		}
	}
	return nil
}

// issueSession creates a signed HS256 JWT with the username as subject.
func (s *AccessServiceImpl) issueSession(username string) (model.Session, error) {
	now := s.clk.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return model.Session{AccessToken: signed, ExpiresAt: exp}, nil
}

// Register sends an activation link to the account address. No credential
// is stored until the link is consumed; two concurrent registrations for
// the same username may both send a link, which the activation flow
// resolves to ActivateAlready for the loser.
func (s *AccessServiceImpl) Register(ctx context.Context, username, password string) (RegisterStatus, error) {
	if username == "" || password == "" {
		return RegisterFailure, errors.New("empty username/password")
	}
	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return RegisterFailure, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return RegisterAlready, nil
	}

	token, err := s.codec.Encode(ActivationPayload{
		Username: username,
		Password: password,
		IssuedAt: s.clk.Now(),
	})
	if err != nil {
		return RegisterFailure, fmt.Errorf("encode activation token: %w", err)
	}

	link := fmt.Sprintf("%s/api/activate?key=%s", s.baseURL, token)
	if err := s.sender.Send(ctx, username, activationSubject, link); err != nil {
		return RegisterFailure, fmt.Errorf("send activation mail: %w", err)
	}
	return RegisterSuccess, nil
}

// Activate consumes an activation token. Malformed and expired tokens both
// resolve to ActivateFailure; the caller cannot tell them apart.
func (s *AccessServiceImpl) Activate(ctx context.Context, token string) (ActivateStatus, error) {
	var p ActivationPayload
	if err := s.codec.Decode(token, &p); err != nil {
		return ActivateFailure, nil
	}
	if s.clk.Now().Sub(p.IssuedAt) >= s.activationTTL {
		return ActivateFailure, nil
	}

	exists, err := s.users.Exists(ctx, p.Username)
	if err != nil {
		return ActivateFailure, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return ActivateAlready, nil
	}

	salt, err := pkgcrypto.GenerateSalt(s.saltLength)
	if err != nil {
		return ActivateFailure, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := pkgcrypto.HashPassword(p.Password, salt)
	if err != nil {
		return ActivateFailure, fmt.Errorf("hash password: %w", err)
	}

	err = s.users.Insert(ctx, &model.Credential{
		Username:     p.Username,
		PasswordHash: hash,
		PasswordSalt: salt,
	})
	if errors.Is(err, errs.ErrAlreadyExists) {
		// lost an exists-then-insert race with a concurrent activation
		return ActivateAlready, nil
	}
	if err != nil {
		return ActivateFailure, fmt.Errorf("insert credential: %w", err)
	}
	return ActivateSuccess, nil
}
