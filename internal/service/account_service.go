package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabsplit/tabsplit/internal/auth"
	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/storage"
)

// AccountService handles registration, login and the payment profile every
// host needs before finalizing a settlement.
type AccountService struct {
	store         storage.Store
	authenticator *auth.PasswordAuthenticator
	jwtManager    *auth.JWTManager
}

// NewAccountService creates an AccountService over the given store.
func NewAccountService(store storage.Store, jwtManager *auth.JWTManager) *AccountService {
	return &AccountService{
		store:         store,
		authenticator: auth.NewPasswordAuthenticator(store),
		jwtManager:    jwtManager,
	}
}

// Register creates an account and returns a session token for it.
func (s *AccountService) Register(ctx context.Context, email, displayName, password string) (*models.User, string, error) {
	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("User registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials and returns a session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// SetPaymentOptions replaces the caller's payment options. Guests may
// configure options too, since a guest device can host a receipt.
func (s *AccountService) SetPaymentOptions(ctx context.Context, id models.Identity, options []models.PaymentOption) error {
	if id.IsZero() {
		return models.ErrNoIdentity
	}
	key := id.ParticipantKey()
	for i := range options {
		options[i].ParticipantKey = key
	}
	return s.store.SetPaymentOptions(ctx, key, options)
}

// GetPaymentOptions returns the caller's configured payment options.
func (s *AccountService) GetPaymentOptions(ctx context.Context, id models.Identity) ([]models.PaymentOption, error) {
	if id.IsZero() {
		return nil, models.ErrNoIdentity
	}
	return s.store.GetPaymentOptions(ctx, id.ParticipantKey())
}
