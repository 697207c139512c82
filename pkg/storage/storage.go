// Package storage defines the narrow persistence interface consumed by the
// service layer, along with its sentinel errors. Implementations live in
// the memory and postgres subpackages.
package storage

import (
	"context"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
)

// NewPost carries the fields for creating a post. Options is non-empty only
// for polls.
type NewPost struct {
	AuthorID      int64
	Type          api.PostType
	Title         string
	Content       string
	AllowComments bool
	Options       []string
}

// Store is the persistence contract. All calls are safe for concurrent use;
// implementations must not require callers to hold any lock across calls.
type Store interface {
	// CreateUser inserts a credential record and returns the new principal
	// id. Returns ErrDuplicate when the username or email is taken.
	CreateUser(ctx context.Context, username, email, passwordHash string, role api.Role) (int64, error)

	// UserByEmail fetches a user including the stored password hash.
	// Returns ErrNotFound for unknown emails.
	UserByEmail(ctx context.Context, email string) (*api.User, error)

	// UserByID fetches a user's profile fields. Returns ErrNotFound for
	// unknown ids.
	UserByID(ctx context.Context, id int64) (*api.User, error)

	// CreatePost inserts a post (and its poll options, when present) and
	// returns the new post id.
	CreatePost(ctx context.Context, p NewPost) (int64, error)

	// PostByID fetches a post's base fields without viewer enrichment.
	// Returns ErrNotFound for unknown ids.
	PostByID(ctx context.Context, id int64) (*api.Post, error)

	// Feed returns all posts newest first, enriched for the viewer:
	// poll options with tallies, item-vote tallies, comment counts, and
	// whether (and how) the viewer has already voted.
	Feed(ctx context.Context, viewerID int64) ([]*api.Post, error)

	// CreateComment appends a comment. Returns ErrNotFound for unknown
	// posts and ErrCommentsDisabled when the post does not allow comments.
	CreateComment(ctx context.Context, postID, userID int64, content string) (int64, error)

	// Comments returns a page of comments (oldest first) and the total
	// comment count for the post. Returns ErrNotFound for unknown posts.
	Comments(ctx context.Context, postID int64, offset, limit int) ([]*api.Comment, int, error)

	// CastPollVote records a poll vote. Returns ErrNotFound when the post
	// or option is unknown or the option belongs to a different post, and
	// ErrVoteExists when the user already voted on this poll.
	CastPollVote(ctx context.Context, postID, optionID, userID int64) error

	// CastItemVote records a final vote on a vote item. Returns
	// ErrNotFound for unknown posts and ErrVoteExists on a repeat vote.
	CastItemVote(ctx context.Context, postID, userID int64, choice api.VoteChoice) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases connections and resources.
	Close() error
}
