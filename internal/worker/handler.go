package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"souqly/internal/model"
	"souqly/internal/queue"
)

// OwnerResolver resolves a listing to its owner. Abstracts the
// repository layer so workers don't depend on DB directly.
type OwnerResolver interface {
	GetOwnerID(ctx context.Context, productID int64) (int64, error)
}

// NotificationCreator writes a notification and optionally pushes it.
// This allows the worker to create notifications without depending on
// the service directly.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, userID, actorID int64, notifType string, productID *int64) error
}

// Handler processes activity events from the stream.
type Handler struct {
	ownerResolver OwnerResolver
	notifCreator  NotificationCreator
}

// NewHandler creates a new event handler.
func NewHandler(ownerResolver OwnerResolver, notifCreator NotificationCreator) *Handler {
	return &Handler{
		ownerResolver: ownerResolver,
		notifCreator:  notifCreator,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ActivityEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		// Nothing to fan out; the edge removal already happened in the
		// request path. Acked so it doesn't sit in the pending list.
		err = nil
	case queue.EventProductLiked:
		err = h.handleProductLiked(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleUserFollowed creates a follow notification for the followee.
func (h *Handler) handleUserFollowed(ctx context.Context, event queue.ActivityEvent) error {
	log.Printf("[Worker] UserFollowed: follower=%d followee=%d", event.FollowerID, event.FollowingID)

	if event.FollowerID == event.FollowingID {
		return nil
	}

	err := h.notifCreator.CreateNotification(ctx, event.FollowingID, event.FollowerID, model.NotificationTypeFollow, nil)
	if err != nil {
		return fmt.Errorf("create follow notification: %w", err)
	}

	log.Printf("[Worker] UserFollowed DONE: notification created for followee=%d", event.FollowingID)
	return nil
}

// handleProductLiked creates a like notification for the listing owner.
func (h *Handler) handleProductLiked(ctx context.Context, event queue.ActivityEvent) error {
	log.Printf("[Worker] ProductLiked: product=%d liker=%d", event.ProductID, event.LikerID)

	ownerID, err := h.ownerResolver.GetOwnerID(ctx, event.ProductID)
	if err != nil {
		// Listing may have been deleted between like and fan-out
		log.Printf("[Worker] ProductLiked: owner lookup failed for product=%d: %v", event.ProductID, err)
		return nil
	}

	// Don't notify if liking own listing
	if ownerID == event.LikerID {
		return nil
	}

	productID := event.ProductID
	err = h.notifCreator.CreateNotification(ctx, ownerID, event.LikerID, model.NotificationTypeLike, &productID)
	if err != nil {
		return fmt.Errorf("create like notification: %w", err)
	}

	log.Printf("[Worker] ProductLiked DONE: notification created for owner=%d", ownerID)
	return nil
}
