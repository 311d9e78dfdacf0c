// Package notify fans push notifications out to registered devices.
// Delivery failures are per-recipient and never abort the batch.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"barberagenda/internal/domain"
	"barberagenda/internal/store"
)

// Audience selects the recipient set of a dispatch.
type Audience struct {
	// Role targets every user with the role; empty targets a single user.
	Role domain.Role
	// UserID targets one user when Role is empty.
	UserID string
}

func AudienceRole(role domain.Role) Audience { return Audience{Role: role} }
func AudienceUser(userID string) Audience    { return Audience{UserID: userID} }

type Dispatcher struct {
	tokens store.DeviceTokenStore
	sender Sender
	log    *slog.Logger
}

func NewDispatcher(tokens store.DeviceTokenStore, sender Sender, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		tokens: tokens,
		sender: sender,
		log:    log.With(slog.String("component", "notify"), slog.String("provider", sender.ProviderID())),
	}
}

// Send resolves the audience to device tokens and pushes msg to each,
// returning how many deliveries succeeded.
func (d *Dispatcher) Send(ctx context.Context, aud Audience, msg Message) (int, error) {
	var (
		tokens []domain.DeviceToken
		err    error
	)
	switch {
	case aud.Role != "":
		if !aud.Role.Valid() {
			return 0, fmt.Errorf("unknown audience role %q", aud.Role)
		}
		tokens, err = d.tokens.ListForRole(ctx, aud.Role)
	case aud.UserID != "":
		tokens, err = d.tokens.ListForUser(ctx, aud.UserID)
	default:
		return 0, fmt.Errorf("audience must name a role or a user")
	}
	if err != nil {
		return 0, fmt.Errorf("resolve audience: %w", err)
	}

	delivered := 0
	for _, tok := range tokens {
		if err := d.sender.Push(ctx, tok.Token, msg); err != nil {
			d.log.Warn("push delivery failed",
				slog.String("owner_id", tok.OwnerID),
				slog.Any("err", err),
			)
			continue
		}
		delivered++
	}

	d.log.Info("push dispatched",
		slog.Int("recipients", len(tokens)),
		slog.Int("delivered", delivered),
	)
	return delivered, nil
}
