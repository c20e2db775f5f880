package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the activity stream
const (
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
	EventProductLiked   = "product_liked"
)

// Stream names
const (
	StreamActivity = "stream:activity"
)

// Consumer group name for notification workers
const (
	ConsumerGroupNotifications = "notification_workers"
)

// ActivityEvent represents an event published to the activity stream.
// All activity events share this structure.
type ActivityEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Follow events
	FollowerID  int64 `json:"follower_id,omitempty"`
	FollowingID int64 `json:"following_id,omitempty"`

	// Like events
	ProductID int64 `json:"product_id,omitempty"`
	LikerID   int64 `json:"liker_id,omitempty"`
}

// NewUserFollowedEvent creates an event for when a user follows another.
// The worker writes a follow notification and pushes it to the followee.
func NewUserFollowedEvent(followerID, followingID int64) ActivityEvent {
	return ActivityEvent{
		Type:        EventUserFollowed,
		Timestamp:   time.Now().Unix(),
		FollowerID:  followerID,
		FollowingID: followingID,
	}
}

// NewUserUnfollowedEvent creates an event for when a user unfollows another.
func NewUserUnfollowedEvent(followerID, followingID int64) ActivityEvent {
	return ActivityEvent{
		Type:        EventUserUnfollowed,
		Timestamp:   time.Now().Unix(),
		FollowerID:  followerID,
		FollowingID: followingID,
	}
}

// NewProductLikedEvent creates an event for when a listing is liked.
// The worker notifies the listing owner.
func NewProductLikedEvent(productID, likerID int64) ActivityEvent {
	return ActivityEvent{
		Type:      EventProductLiked,
		Timestamp: time.Now().Unix(),
		ProductID: productID,
		LikerID:   likerID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e ActivityEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseActivityEvent parses an ActivityEvent from Redis stream message values.
func ParseActivityEvent(values map[string]interface{}) (ActivityEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ActivityEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ActivityEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ActivityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
