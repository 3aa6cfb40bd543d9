package subscribers

import (
	"context"
	"time"

	gosharedevents "github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/models"
)

// ProductReviewer applies a review decision to a published product
type ProductReviewer interface {
	SetProductStatus(ctx context.Context, tenantID string, productID uuid.UUID, status models.ProductStatus, actorID string) error
}

// ApprovalSubscriber moves published products out of pending when their review is decided
type ApprovalSubscriber struct {
	subscriber *gosharedevents.Subscriber
	reviewer   ProductReviewer
	logger     *logrus.Entry
	cancel     context.CancelFunc
}

// NewApprovalSubscriber creates a new approval event subscriber for products
func NewApprovalSubscriber(natsURL string, reviewer ProductReviewer, logger *logrus.Logger) (*ApprovalSubscriber, error) {
	if natsURL == "" {
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := gosharedevents.DefaultSubscriberConfig(natsURL, "marketplace-service-approvals")
	config.Name = "marketplace-service-approval-subscriber"
	config.DeliverPolicy = "new"
	config.MaxDeliver = 3
	config.AckWait = 30 * time.Second

	subscriber, err := gosharedevents.NewSubscriber(config, logger)
	if err != nil {
		return nil, err
	}

	return &ApprovalSubscriber{
		subscriber: subscriber,
		reviewer:   reviewer,
		logger:     logger.WithField("component", "approval-subscriber"),
	}, nil
}

// Start starts listening for approval events
func (s *ApprovalSubscriber) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	subjects := []string{gosharedevents.ApprovalGranted, gosharedevents.ApprovalRejected}

	s.logger.Info("Starting product review subscription...")

	if err := s.subscriber.SubscribeApprovalEvents(ctx, subjects, s.handleApprovalEvent); err != nil {
		return err
	}

	s.logger.WithField("subjects", subjects).Info("Product review subscriber started successfully")
	return nil
}

// handleApprovalEvent maps a decided product_creation review to the product status
func (s *ApprovalSubscriber) handleApprovalEvent(ctx context.Context, event *gosharedevents.ApprovalEvent) error {
	log := s.logger.WithFields(logrus.Fields{
		"event_type":    event.EventType,
		"approval_id":   event.ApprovalRequestID,
		"action_type":   event.ActionType,
		"resource_type": event.ResourceType,
		"resource_id":   event.ResourceID,
		"status":        event.Status,
	})
	log.Info("Received approval event")

	if event.ResourceType != "product" || event.ActionType != "product_creation" {
		log.Debug("Ignoring approval event for another resource")
		return nil
	}

	var status models.ProductStatus
	switch event.Status {
	case "approved":
		status = models.ProductStatusApproved
	case "rejected":
		status = models.ProductStatusRejected
	default:
		log.Debug("Ignoring undecided approval event")
		return nil
	}

	productID, err := uuid.Parse(event.ResourceID)
	if err != nil {
		log.WithError(err).Error("Invalid product ID in approval event")
		return nil // redelivery cannot fix a malformed id
	}

	err = s.reviewer.SetProductStatus(ctx, event.TenantID, productID, status, event.ApproverName)
	if apperrors.Is(err, apperrors.KindNotFound) {
		log.Warn("Reviewed product no longer exists")
		return nil
	}
	if apperrors.Is(err, apperrors.KindValidation) {
		log.WithError(err).Warn("Approval decision rejected")
		return nil
	}
	if err != nil {
		log.WithError(err).Error("Failed to apply approval decision")
		return err
	}

	log.WithField("new_status", status).Info("Product review applied")
	return nil
}

// Stop stops the approval subscriber
func (s *ApprovalSubscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.subscriber != nil {
		s.subscriber.Close()
	}
	s.logger.Info("Product review subscriber stopped")
}
