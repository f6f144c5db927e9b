package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/narravox/narravox/internal/models"
)

// GetUser looks up one account by id. Returns (nil, nil) when no row exists,
// since tokens can outlive deleted accounts.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, email, name, is_admin, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// ActiveSubscription returns the user's current subscription, or (nil, nil)
// when they have none (free tier).
func (s *Service) ActiveSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, tier, status, started_at, expires_at, created_at, updated_at
		 FROM subscriptions
		 WHERE user_id = $1 AND status = 'active'
		 ORDER BY started_at DESC LIMIT 1`,
		userID,
	).Scan(&sub.ID, &sub.UserID, &sub.Tier, &sub.Status, &sub.StartedAt, &sub.ExpiresAt, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription for %s: %w", userID, err)
	}
	return &sub, nil
}
