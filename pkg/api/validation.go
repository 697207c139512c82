package api

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxPollOptions caps the number of options accepted on a poll post.
const MaxPollOptions = 20

// RegisterRequest is the payload for POST /api/users/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate returns the first validation failure, or nil.
func (r *RegisterRequest) Validate() *APIError {
	if strings.TrimSpace(r.Username) == "" {
		return NewInvalidRequestError("username", "username is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return NewInvalidRequestError("email", "email is not a valid address")
	}
	if r.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	return nil
}

// LoginRequest is the payload for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate returns the first validation failure, or nil.
func (r *LoginRequest) Validate() *APIError {
	if r.Email == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	if r.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	return nil
}

// CreatePostRequest is the payload for POST /api/posts.
type CreatePostRequest struct {
	PostType      string   `json:"postType"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Options       []string `json:"options"`
	AllowComments bool     `json:"allowComments"`
}

// Validate returns the first validation failure, or nil. Polls must carry at
// least two non-empty options; other types must not carry options at all.
func (r *CreatePostRequest) Validate() *APIError {
	if !ValidPostType(r.PostType) {
		return NewInvalidRequestError("postType", "postType must be one of Poll, Announcement, ForumTopic, VoteItem")
	}
	if strings.TrimSpace(r.Title) == "" {
		return NewInvalidRequestError("title", "title is required")
	}
	if PostType(r.PostType) == PostTypePoll {
		nonEmpty := 0
		for _, opt := range r.Options {
			if strings.TrimSpace(opt) != "" {
				nonEmpty++
			}
		}
		if nonEmpty < 2 {
			return NewInvalidRequestError("options", "polls must have at least two non-empty options")
		}
		if nonEmpty > MaxPollOptions {
			return NewInvalidRequestError("options",
				fmt.Sprintf("polls are limited to %d options", MaxPollOptions))
		}
	} else if len(r.Options) > 0 {
		return NewInvalidRequestError("options", "options are only valid for polls")
	}
	return nil
}

// CreateCommentRequest is the payload for POST /api/comments. PostID arrives
// as a string (the client reads it off a DOM dataset) and is parsed here.
type CreateCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

// Validate returns the first validation failure, or nil.
func (r *CreateCommentRequest) Validate() *APIError {
	if _, err := ParseID(r.PostID); err != nil {
		return NewInvalidRequestError("postId", "postId must be a positive integer")
	}
	if strings.TrimSpace(r.Content) == "" {
		return NewInvalidRequestError("content", "content is required")
	}
	return nil
}

// PollVoteRequest is the payload for POST /api/vote.
type PollVoteRequest struct {
	PostID   string `json:"PostId"`
	OptionID string `json:"OptionId"`
}

// Validate returns the first validation failure, or nil.
func (r *PollVoteRequest) Validate() *APIError {
	if _, err := ParseID(r.PostID); err != nil {
		return NewInvalidRequestError("PostId", "PostId must be a positive integer")
	}
	if _, err := ParseID(r.OptionID); err != nil {
		return NewInvalidRequestError("OptionId", "OptionId must be a positive integer")
	}
	return nil
}

// ItemVoteRequest is the payload for POST /api/item-votes. AuthToken is the
// purpose token minted by the feed for this specific vote item.
type ItemVoteRequest struct {
	PostID    string `json:"PostId"`
	Choice    string `json:"Choice"`
	AuthToken string `json:"AuthToken"`
}

// Validate returns the first validation failure, or nil.
func (r *ItemVoteRequest) Validate() *APIError {
	if _, err := ParseID(r.PostID); err != nil {
		return NewInvalidRequestError("PostId", "PostId must be a positive integer")
	}
	if !ValidVoteChoice(r.Choice) {
		return NewInvalidRequestError("Choice", "Choice must be one of For, Against, Abstain")
	}
	if r.AuthToken == "" {
		return NewInvalidRequestError("AuthToken", "AuthToken is required")
	}
	return nil
}

// ParseID parses a decimal resource identifier. IDs are opaque positive
// integers; anything else is a caller error.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing id %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}
