package mailer

import (
	"context"
	"log/slog"
	"sync"

	"feira/internal/middleware"
	"feira/internal/models"
	"feira/internal/observability"
)

// Dispatcher fans out transactional emails for moderation events.
// Delivery is best-effort: a failed send is logged and counted, never
// surfaced to the moderation caller.
type Dispatcher struct {
	mailer   Mailer
	siteName string
	siteURL  string
}

// NewDispatcher returns a Dispatcher sending through mailer.
func NewDispatcher(mailer Mailer, siteName, siteURL string) *Dispatcher {
	return &Dispatcher{mailer: mailer, siteName: siteName, siteURL: siteURL}
}

// SendApproved emails every listing owner in parallel and waits for all
// sends to finish. One failing recipient does not block the others.
func (d *Dispatcher) SendApproved(ctx context.Context, listings []models.Listing) {
	var wg sync.WaitGroup
	for _, listing := range listings {
		if listing.Email == "" {
			continue
		}
		wg.Add(1)
		go func(l models.Listing) {
			defer wg.Done()
			d.send(ctx, TemplateApproved, l.Email, l.ID, func() (string, string, error) {
				return RenderApproved(d.siteName, d.siteURL, l.Name, l.ID)
			})
		}(listing)
	}
	wg.Wait()
}

// SendSubmitted acknowledges a new submission to its owner.
func (d *Dispatcher) SendSubmitted(ctx context.Context, listing models.Listing) {
	if listing.Email == "" {
		return
	}
	d.send(ctx, TemplateSubmitted, listing.Email, listing.ID, func() (string, string, error) {
		return RenderSubmitted(d.siteName, listing.Name)
	})
}

// SendAdminAlert tells every administrator about a fresh submission.
// Recipients are emailed in parallel, same contract as SendApproved.
func (d *Dispatcher) SendAdminAlert(ctx context.Context, listing models.Listing, recipients []string) {
	var wg sync.WaitGroup
	for _, to := range recipients {
		if to == "" {
			continue
		}
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			d.send(ctx, TemplateAdminAlert, to, listing.ID, func() (string, string, error) {
				return RenderAdminAlert(d.siteName, d.siteURL, listing.Name)
			})
		}(to)
	}
	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, tmpl, to string, listingID uint, render func() (string, string, error)) {
	subject, body, err := render()
	if err == nil {
		err = d.mailer.SendEmail(to, subject, body)
	}
	if err != nil {
		observability.EmailDispatchTotal.WithLabelValues(tmpl, "failure").Inc()
		middleware.Logger.ErrorContext(ctx, "Email dispatch failed",
			slog.String("template", tmpl),
			slog.Uint64("listing_id", uint64(listingID)),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.EmailDispatchTotal.WithLabelValues(tmpl, "success").Inc()
}
