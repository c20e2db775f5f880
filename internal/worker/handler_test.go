package worker_test

import (
	"context"
	"errors"
	"testing"

	"souqly/internal/model"
	"souqly/internal/queue"
	"souqly/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// MockOwnerResolver simulates the product repository's owner lookup.
type MockOwnerResolver struct {
	// owners maps productID -> ownerID
	owners map[int64]int64
}

func NewMockOwnerResolver() *MockOwnerResolver {
	return &MockOwnerResolver{owners: make(map[int64]int64)}
}

func (m *MockOwnerResolver) AddProduct(productID, ownerID int64) {
	m.owners[productID] = ownerID
}

func (m *MockOwnerResolver) GetOwnerID(ctx context.Context, productID int64) (int64, error) {
	ownerID, ok := m.owners[productID]
	if !ok {
		return 0, model.ErrProductNotFound
	}
	return ownerID, nil
}

// MockNotificationCreator records every notification the handler asks for.
type MockNotificationCreator struct {
	created []createdNotification
	err     error
}

type createdNotification struct {
	UserID, ActorID int64
	Type            string
	ProductID       *int64
}

func (m *MockNotificationCreator) CreateNotification(ctx context.Context, userID, actorID int64, notifType string, productID *int64) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, createdNotification{
		UserID:    userID,
		ActorID:   actorID,
		Type:      notifType,
		ProductID: productID,
	})
	return nil
}

// =============================================================================
// Tests
// =============================================================================

func TestHandler_UserFollowed(t *testing.T) {
	notif := &MockNotificationCreator{}
	h := worker.NewHandler(NewMockOwnerResolver(), notif)

	event := queue.NewUserFollowedEvent(1, 2)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notif.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(notif.created))
	}
	n := notif.created[0]
	if n.UserID != 2 || n.ActorID != 1 || n.Type != model.NotificationTypeFollow {
		t.Errorf("notification = %+v, want follow for user 2 from actor 1", n)
	}
	if n.ProductID != nil {
		t.Error("follow notifications carry no product id")
	}
}

func TestHandler_ProductLiked(t *testing.T) {
	owners := NewMockOwnerResolver()
	owners.AddProduct(10, 5)
	notif := &MockNotificationCreator{}
	h := worker.NewHandler(owners, notif)

	event := queue.NewProductLikedEvent(10, 3)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notif.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(notif.created))
	}
	n := notif.created[0]
	if n.UserID != 5 || n.ActorID != 3 || n.Type != model.NotificationTypeLike {
		t.Errorf("notification = %+v, want like for owner 5 from liker 3", n)
	}
	if n.ProductID == nil || *n.ProductID != 10 {
		t.Errorf("product id = %v, want 10", n.ProductID)
	}
}

func TestHandler_ProductLiked_OwnListing(t *testing.T) {
	owners := NewMockOwnerResolver()
	owners.AddProduct(10, 3)
	notif := &MockNotificationCreator{}
	h := worker.NewHandler(owners, notif)

	event := queue.NewProductLikedEvent(10, 3)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notif.created) != 0 {
		t.Error("liking your own listing must not create a notification")
	}
}

func TestHandler_ProductLiked_DeletedListing(t *testing.T) {
	// Listing gone between like and fan-out: the event is consumed
	// without error so it gets acked instead of retried forever.
	notif := &MockNotificationCreator{}
	h := worker.NewHandler(NewMockOwnerResolver(), notif)

	event := queue.NewProductLikedEvent(99, 3)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notif.created) != 0 {
		t.Error("no notification expected for a deleted listing")
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h := worker.NewHandler(NewMockOwnerResolver(), &MockNotificationCreator{})

	err := h.HandleEvent(context.Background(), queue.ActivityEvent{Type: "post_shared"})
	if err == nil {
		t.Fatal("expected an error for an unknown event type")
	}
}

func TestHandler_UserUnfollowed_Acked(t *testing.T) {
	notif := &MockNotificationCreator{}
	h := worker.NewHandler(NewMockOwnerResolver(), notif)

	event := queue.NewUserUnfollowedEvent(1, 2)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notif.created) != 0 {
		t.Error("unfollow events create no notifications")
	}
}

func TestHandler_NotificationError_Propagates(t *testing.T) {
	notif := &MockNotificationCreator{err: errors.New("insert failed")}
	h := worker.NewHandler(NewMockOwnerResolver(), notif)

	event := queue.NewUserFollowedEvent(1, 2)
	if err := h.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected the creator error to propagate")
	}
}
