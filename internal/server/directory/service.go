package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/credentials"
	"github.com/dmitrijs2005/peerlink/internal/keycodec"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/google/uuid"
)

// Service owns registration, login (credential rotation), lookup and
// listing. Ids are assigned here and are immutable; usernames are display
// labels and intentionally not unique.
//
// Key custody: clients generate their key pair locally and submit only the
// public half at registration. The directory never sees private material.
type Service struct {
	repo   Repository
	issuer *credentials.Issuer
	logger logging.Logger
}

func NewService(repo Repository, issuer *credentials.Issuer, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		issuer: issuer,
		logger: logger.With("module", "directory"),
	}
}

// Register allocates a new unique id for username, issues the first session
// credential pair and persists the record. The submitted public key must be
// a parseable SPKI PEM; otherwise keycodec.ErrInvalidKey is returned.
func (s *Service) Register(ctx context.Context, username, publicKeyPEM string) (*models.User, error) {

	if _, err := keycodec.DecodePublic(publicKeyPEM); err != nil {
		return nil, err
	}

	networkKey, err := s.issuer.NewNetworkKey()
	if err != nil {
		return nil, fmt.Errorf("issuing network key: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:         uuid.NewString(),
		Username:   username,
		PublicKey:  publicKeyPEM,
		SessionID:  s.issuer.NewSessionID(),
		NetworkKey: networkKey,
		LastLogin:  now,
		CreatedAt:  now,
		IsActive:   true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "id", user.ID, "username", username)
	return user, nil
}

// Login looks the user up by id and rotates the session credential pair.
// Both halves are generated before the single repository write, so a reader
// can never observe a mix of two rotations.
func (s *Service) Login(ctx context.Context, id string) (*models.User, error) {
	user, err := s.rotateCredentials(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "id", id)
	return user, nil
}

// RefreshSession rotates the credential pair without any other login side
// effects surfaced to the caller.
func (s *Service) RefreshSession(ctx context.Context, id string) (*models.SessionCredentials, error) {
	user, err := s.rotateCredentials(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SessionCredentials{SessionID: user.SessionID, NetworkKey: user.NetworkKey}, nil
}

// Lookup returns the public view of a user: id, username, public key and
// current session id. The network key is never exposed here.
func (s *Service) Lookup(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.PublicView(), nil
}

// List returns all known users with the network key redacted. Ordering
// depends on the backend: creation order on Postgres, unspecified in memory.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Redacted())
	}
	return out, nil
}

// RecordConnection notes that two users have been bridged by the relay.
// Advisory only; failures are logged, not surfaced.
func (s *Service) RecordConnection(ctx context.Context, a, b string) {
	if err := s.repo.AddConnection(ctx, a, b); err != nil {
		s.logger.Warn(ctx, "recording connection failed", "a", a, "b", b, "error", err.Error())
	}
}

// BumpMessageCount increments the sender's relayed-message counter.
// Advisory only; failures are logged, not surfaced.
func (s *Service) BumpMessageCount(ctx context.Context, id string) {
	if err := s.repo.IncrementMessageCount(ctx, id); err != nil {
		s.logger.Warn(ctx, "bumping message count failed", "id", id, "error", err.Error())
	}
}

func (s *Service) rotateCredentials(ctx context.Context, id string) (*models.User, error) {
	networkKey, err := s.issuer.NewNetworkKey()
	if err != nil {
		return nil, fmt.Errorf("issuing network key: %w", err)
	}

	return s.repo.UpdateSession(ctx, id, s.issuer.NewSessionID(), networkKey, time.Now())
}
