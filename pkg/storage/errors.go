package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a user, post, or poll option does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated, such
	// as registering an already-taken username or email.
	ErrDuplicate = errors.New("record already exists")

	// ErrVoteExists is returned when a principal votes twice on the same post.
	ErrVoteExists = errors.New("vote already cast")

	// ErrCommentsDisabled is returned when commenting on a post whose
	// author disabled comments.
	ErrCommentsDisabled = errors.New("comments are disabled for this post")
)
