package realtime

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-stats/internal/infrastructure/cache"
	usecaseErrors "github.com/johnquangdev/meeting-stats/internal/usecase/errors"
)

// TicketManager issues one-time tickets that stand in for a JWT on the
// WebSocket upgrade, for clients that cannot set request headers there.
type TicketManager struct {
	store cache.Store
	ttl   time.Duration
}

// NewTicketManager creates a ticket manager backed by store
func NewTicketManager(store cache.Store, ttl time.Duration) *TicketManager {
	return &TicketManager{
		store: store,
		ttl:   ttl,
	}
}

// TTL returns how long an issued ticket stays valid
func (tm *TicketManager) TTL() time.Duration {
	return tm.ttl
}

// Issue generates a random ticket bound to userID
func (tm *TicketManager) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	ticket := base64.RawURLEncoding.EncodeToString(b)
	if err := tm.store.Set(ctx, ticketKey(ticket), userID.String(), tm.ttl); err != nil {
		return "", fmt.Errorf("failed to store ticket: %w", err)
	}
	return ticket, nil
}

// Redeem consumes ticket and returns the user it was issued to
func (tm *TicketManager) Redeem(ctx context.Context, ticket string) (uuid.UUID, error) {
	if ticket == "" {
		return uuid.Nil, usecaseErrors.ErrTicketInvalid
	}

	value, ok, err := tm.store.Take(ctx, ticketKey(ticket))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to redeem ticket: %w", err)
	}
	if !ok {
		return uuid.Nil, usecaseErrors.ErrTicketInvalid
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, usecaseErrors.ErrTicketInvalid
	}
	return userID, nil
}

func ticketKey(ticket string) string {
	return fmt.Sprintf("realtime:ticket:%s", ticket)
}
