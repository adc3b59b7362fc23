package canvas

import (
	"context"
	"fmt"

	"github.com/ryanbastic/pixel-mosaic/internal/metrics"
	"github.com/ryanbastic/pixel-mosaic/internal/payment"
	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

// ReconcileResult describes what Reconcile did with a verified event.
type ReconcileResult struct {
	EventID   string
	EventType string
	PixelID   string
	OwnerID   string
	Claimed   bool
}

// Reconcile verifies a payment event and, for a completed checkout, grants
// the pixel named in its metadata to the paying user. Replaying an event
// re-asserts the same owner. Events that do not complete a checkout are
// acknowledged without effect, as are checkouts whose buyer has since
// deleted their account.
//
// A bad signature returns pixel.ErrSignatureInvalid and nothing is written.
// A store failure is returned so the processor redelivers the event.
func (s *Service) Reconcile(ctx context.Context, payload []byte, signature string) (ReconcileResult, error) {
	ev, err := s.processor.VerifyEvent(payload, signature)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		return ReconcileResult{}, fmt.Errorf("%w: %v", pixel.ErrSignatureInvalid, err)
	}

	res := ReconcileResult{EventID: ev.ID, EventType: ev.Type}
	if !ev.Completed() {
		metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "ignored").Inc()
		s.logger.Debug("ignoring payment event", "event_id", ev.ID, "type", ev.Type, "payment_status", ev.PaymentStatus)
		return res, nil
	}

	res.PixelID = ev.Metadata[payment.MetadataPixelID]
	res.OwnerID = ev.Metadata[payment.MetadataUserID]
	if res.PixelID == "" || res.OwnerID == "" {
		metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "missing_metadata").Inc()
		s.logger.Warn("completed checkout without pixel metadata", "event_id", ev.ID)
		return res, nil
	}
	if !pixel.ValidID(res.PixelID, s.cfg.GridSize) {
		metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "invalid_pixel").Inc()
		s.logger.Warn("completed checkout for invalid pixel", "event_id", ev.ID, "pixel_id", res.PixelID)
		return res, nil
	}

	if s.owners != nil {
		exists, err := s.owners.OwnerExists(ctx, res.OwnerID)
		if err != nil {
			metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "error").Inc()
			return res, fmt.Errorf("look up owner %s: %w", res.OwnerID, err)
		}
		if !exists {
			metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "unknown_owner").Inc()
			s.logger.Warn("completed checkout for deleted account", "event_id", ev.ID, "pixel_id", res.PixelID, "user_id", res.OwnerID)
			return res, nil
		}
	}

	if err := s.store.Claim(ctx, res.PixelID, res.OwnerID, s.cfg.DefaultColor); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "error").Inc()
		return res, fmt.Errorf("claim pixel %s: %w", res.PixelID, err)
	}

	res.Claimed = true
	metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "claimed").Inc()
	metrics.ClaimsTotal.Inc()
	s.logger.Info("pixel claimed", "event_id", ev.ID, "pixel_id", res.PixelID, "user_id", res.OwnerID)
	return res, nil
}
