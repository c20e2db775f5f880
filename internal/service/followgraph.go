package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"souqly/internal/model"
	"souqly/internal/session"
)

// FollowStore is the remote surface FollowGraph needs. FollowService
// satisfies it; tests substitute mocks.
type FollowStore interface {
	Follow(ctx context.Context, followerID, followingID int64) error
	Unfollow(ctx context.Context, followerID, followingID int64) error
	GetFollowers(ctx context.Context, targetID int64, viewerID *int64) (*model.FollowListResponse, error)
	GetFollowing(ctx context.Context, targetID int64, viewerID *int64) (*model.FollowListResponse, error)
}

type listMode int

const (
	modeNone listMode = iota
	modeFollowers
	modeFollowing
)

type pairKey struct {
	viewerID, otherID int64
}

// FollowGraph holds the follow list state for one mounted screen. The
// displayed rows flip optimistically before the remote write and flip
// back if it fails; a per-pair pending set keeps rapid double-toggles
// from racing each other.
//
// The remote store stays the source of truth. Everything here is a
// cache whose only jobs are instant feedback and defined rollback.
type FollowGraph struct {
	session *session.Context
	store   FollowStore

	mu        sync.Mutex
	mode      listMode
	targetID  int64
	views     []model.FollowView
	listCount int
	pending   map[pairKey]struct{}
}

// NewFollowGraph creates the state holder for one followers/following
// screen. The session context is injected at construction, never read
// from ambient storage.
func NewFollowGraph(sess *session.Context, store FollowStore) *FollowGraph {
	return &FollowGraph{
		session: sess,
		store:   store,
		pending: make(map[pairKey]struct{}),
	}
}

// LoadFollowers populates the graph with targetID's follower list.
func (g *FollowGraph) LoadFollowers(ctx context.Context, targetID int64) error {
	return g.load(ctx, targetID, modeFollowers)
}

// LoadFollowing populates the graph with the list of users targetID follows.
func (g *FollowGraph) LoadFollowing(ctx context.Context, targetID int64) error {
	return g.load(ctx, targetID, modeFollowing)
}

func (g *FollowGraph) load(ctx context.Context, targetID int64, mode listMode) error {
	var viewerID *int64
	if id, ok := g.session.UserID(); ok {
		viewerID = &id
	}

	var resp *model.FollowListResponse
	var err error
	if mode == modeFollowers {
		resp, err = g.store.GetFollowers(ctx, targetID, viewerID)
	} else {
		resp, err = g.store.GetFollowing(ctx, targetID, viewerID)
	}
	if err != nil {
		return fmt.Errorf("load follow list: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.mode = mode
	g.targetID = targetID
	g.views = resp.Users
	g.listCount = len(resp.Users)
	return nil
}

// Views returns a copy of the current rows.
func (g *FollowGraph) Views() []model.FollowView {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.FollowView, len(g.views))
	copy(out, g.views)
	return out
}

// Count returns the number of rows in the loaded list. On the viewer's
// own following screen this is their following count; Toggle and
// ConfirmUnfollow keep it in step with the displayed rows there.
func (g *FollowGraph) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCount
}

// Toggle flips the viewer's follow state for otherID.
//
// The displayed flag flips before the remote write and flips back if
// the write fails; there is no automatic retry. A toggle for a pair
// whose previous write is still in flight is a no-op, so the final
// state is whatever the serialized writes produce, never a corrupted
// interleaving. Self-toggle is a no-op, not an error.
func (g *FollowGraph) Toggle(ctx context.Context, otherID int64) error {
	viewerID, ok := g.session.UserID()
	if !ok {
		return model.ErrAuthRequired
	}
	if viewerID == otherID {
		return nil
	}

	key := pairKey{viewerID: viewerID, otherID: otherID}

	g.mu.Lock()
	if _, inFlight := g.pending[key]; inFlight {
		g.mu.Unlock()
		return nil
	}
	idx := g.indexOfLocked(otherID)
	if idx < 0 {
		g.mu.Unlock()
		return model.ErrInvalidReference
	}
	currentlyFollowing := g.views[idx].ViewerFollows
	// On the viewer's own following list the row count is their following
	// count, so the optimistic flip moves it too.
	adjustCount := g.mode == modeFollowing && g.targetID == viewerID
	g.pending[key] = struct{}{}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.pending, key)
		g.mu.Unlock()
	}()

	return optimisticToggle(
		func() { g.setViewerFollows(otherID, !currentlyFollowing, adjustCount) },
		func() error {
			var err error
			if currentlyFollowing {
				err = g.store.Unfollow(ctx, viewerID, otherID)
			} else {
				err = g.store.Follow(ctx, viewerID, otherID)
			}
			// The store's uniqueness constraint already converged on the
			// state we displayed; nothing to roll back.
			if errors.Is(err, model.ErrAlreadyFollowing) || errors.Is(err, model.ErrNotFollowing) {
				return nil
			}
			return err
		},
		func() { g.setViewerFollows(otherID, currentlyFollowing, adjustCount) },
	)
}

// ConfirmUnfollow removes otherID from the viewer's own following list.
// It requires an explicit confirmation step: confirmed=false is a no-op
// so callers cannot skip the prompt by accident.
//
// On success the row is dropped locally and the cached count
// decremented. On remote failure the whole list is reloaded from the
// store - the row is already gone locally, so a flag revert could not
// restore it.
func (g *FollowGraph) ConfirmUnfollow(ctx context.Context, otherID int64, confirmed bool) error {
	if !confirmed {
		return nil
	}

	viewerID, ok := g.session.UserID()
	if !ok {
		return model.ErrAuthRequired
	}

	g.mu.Lock()
	idx := g.indexOfLocked(otherID)
	if idx < 0 {
		g.mu.Unlock()
		return model.ErrInvalidReference
	}
	g.views = append(g.views[:idx], g.views[idx+1:]...)
	g.listCount--
	mode, targetID := g.mode, g.targetID
	g.mu.Unlock()

	if err := g.store.Unfollow(ctx, viewerID, otherID); err != nil {
		log.Printf("[FollowGraph] Unfollow failed, reloading list: viewer=%d other=%d err=%v", viewerID, otherID, err)
		if mode == modeFollowers {
			if reloadErr := g.LoadFollowers(ctx, targetID); reloadErr != nil {
				log.Printf("[FollowGraph] Reload after failed unfollow also failed: %v", reloadErr)
			}
		} else if mode == modeFollowing {
			if reloadErr := g.LoadFollowing(ctx, targetID); reloadErr != nil {
				log.Printf("[FollowGraph] Reload after failed unfollow also failed: %v", reloadErr)
			}
		}
		return err
	}

	return nil
}

func (g *FollowGraph) indexOfLocked(userID int64) int {
	for i := range g.views {
		if g.views[i].ID == userID {
			return i
		}
	}
	return -1
}

func (g *FollowGraph) setViewerFollows(userID int64, follows bool, adjustCount bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if idx := g.indexOfLocked(userID); idx >= 0 {
		g.views[idx].ViewerFollows = follows
	}
	if adjustCount {
		if follows {
			g.listCount++
		} else {
			g.listCount--
		}
	}
}

// optimisticToggle applies a local state change, commits it remotely,
// and reverts the local change if the commit fails. Rollback semantics
// are defined here once instead of per screen.
func optimisticToggle(apply func(), commit func() error, revert func()) error {
	apply()
	if err := commit(); err != nil {
		revert()
		return err
	}
	return nil
}
