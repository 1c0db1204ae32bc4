package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"feira/internal/mailer"
	"feira/internal/middleware"
	"feira/internal/models"
	"feira/internal/repository"
)

// ModerationEvents receives lifecycle events from the listing service.
// Implementations must be best-effort: event delivery never fails the
// moderation operation that produced it.
type ModerationEvents interface {
	ListingSubmitted(ctx context.Context, listing models.Listing)
	ListingsApproved(ctx context.Context, listings []models.Listing)
}

// RealtimePublisher pushes payloads to connected WebSocket clients.
type RealtimePublisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// EventFanout is the production ModerationEvents implementation. It
// emails listing owners, writes in-app notifications and pushes them
// over the realtime channel. Owner accounts are created lazily from the
// listing contact email on first contact.
type EventFanout struct {
	users    repository.UserRepository
	notifs   repository.NotificationRepository
	emails   *mailer.Dispatcher
	realtime RealtimePublisher
}

// NewEventFanout wires the production event fan-out.
func NewEventFanout(
	users repository.UserRepository,
	notifs repository.NotificationRepository,
	emails *mailer.Dispatcher,
	realtime RealtimePublisher,
) *EventFanout {
	return &EventFanout{users: users, notifs: notifs, emails: emails, realtime: realtime}
}

func (f *EventFanout) ListingSubmitted(ctx context.Context, listing models.Listing) {
	f.emails.SendSubmitted(ctx, listing)
	f.notifyOwner(ctx, listing, fmt.Sprintf("Recebemos o cadastro de %s. Avisaremos quando for aprovado.", listing.Name))
	f.notifyAdmins(ctx, listing)
}

// notifyAdmins alerts every ADMIN account about a fresh submission:
// one email each plus an in-app notification pushed over the realtime
// channel. Like every fan-out here, failures are logged and swallowed.
func (f *EventFanout) notifyAdmins(ctx context.Context, listing models.Listing) {
	admins, err := f.users.ListAdmins(ctx)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "Admin lookup failed during submission alert",
			slog.Uint64("listing_id", uint64(listing.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(admins) == 0 {
		return
	}

	recipients := make([]string, 0, len(admins))
	for _, admin := range admins {
		recipients = append(recipients, admin.Email)
	}
	f.emails.SendAdminAlert(ctx, listing, recipients)

	message := fmt.Sprintf("Novo cadastro aguardando revisão: %s.", listing.Name)
	batch := make([]models.Notification, 0, len(admins))
	for _, admin := range admins {
		batch = append(batch, models.Notification{UserID: admin.ID, Message: message})
	}
	if err := f.notifs.CreateBatch(ctx, batch); err != nil {
		middleware.Logger.ErrorContext(ctx, "Admin notification write failed",
			slog.Uint64("listing_id", uint64(listing.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	for _, notification := range batch {
		f.publish(ctx, notification.UserID, notification)
	}
}

func (f *EventFanout) ListingsApproved(ctx context.Context, listings []models.Listing) {
	f.emails.SendApproved(ctx, listings)
	for _, listing := range listings {
		f.notifyOwner(ctx, listing, fmt.Sprintf("O cadastro de %s foi aprovado e já está no ar.", listing.Name))
	}
}

func (f *EventFanout) notifyOwner(ctx context.Context, listing models.Listing, message string) {
	if listing.Email == "" {
		return
	}

	owner, err := f.users.UpsertByEmail(ctx, listing.Name, listing.Email)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "Owner sync failed during notification",
			slog.Uint64("listing_id", uint64(listing.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	notification := models.Notification{UserID: owner.ID, Message: message}
	if err := f.notifs.Create(ctx, &notification); err != nil {
		middleware.Logger.ErrorContext(ctx, "Notification write failed",
			slog.Uint64("user_id", uint64(owner.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	f.publish(ctx, owner.ID, notification)
}

func (f *EventFanout) publish(ctx context.Context, userID uint, notification models.Notification) {
	if f.realtime == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err == nil {
		err = f.realtime.PublishUser(ctx, userID, string(payload))
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Realtime notification publish failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
}
