// Package feed implements the application service layer: registration,
// login, the enriched post feed, post and comment creation, and both vote
// flows. Every operation validates its input first and returns a typed
// api.APIError; storage sentinel errors are translated here and never reach
// the transport layer raw.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/auth"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/observability"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/storage"
)

// CommentPageSize is the fixed number of comments per page.
const CommentPageSize = 5

// Service wires the store and the token codecs into the operations the HTTP
// surface exposes. It is safe for concurrent use.
type Service struct {
	store    storage.Store
	sessions *auth.SessionCodec
	purposes *auth.PurposeCodec
	gate     *auth.Authorizer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the service layer over a store and the two codecs.
func NewService(store storage.Store, sessions *auth.SessionCodec, purposes *auth.PurposeCodec, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		sessions: sessions,
		purposes: purposes,
		gate:     auth.NewAuthorizer(purposes),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new Citizen account.
func (s *Service) Register(ctx context.Context, req *api.RegisterRequest) *api.APIError {
	if err := req.Validate(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return api.NewInvalidRequestError("password", "password is too long")
		}
		s.logger.Error("hashing password", "error", err)
		return api.NewServerError("Registration failed")
	}

	id, err := s.store.CreateUser(ctx, req.Username, req.Email, hash, api.RoleCitizen)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return api.NewConflictError("Username or email already exists")
		}
		s.logger.Error("creating user", "error", err)
		return api.NewServerError("Registration failed")
	}

	s.logger.Info("user registered", "user_id", id, "username", req.Username)
	return nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, *api.APIError) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.UserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewUnauthorizedError("Invalid email or password")
		}
		s.logger.Error("looking up user", "error", err)
		return nil, api.NewServerError("Login failed")
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, api.NewUnauthorizedError("Invalid email or password")
	}

	token, err := s.sessions.Issue(user.ID, s.now())
	if err != nil {
		s.logger.Error("issuing session token", "error", err)
		return nil, api.NewServerError("Login failed")
	}

	observability.SessionsIssuedTotal.Inc()
	s.logger.Info("user logged in", "user_id", user.ID)
	return &api.LoginResponse{Message: "Login successful", Token: token}, nil
}

// Profile returns the authenticated user's profile.
func (s *Service) Profile(ctx context.Context, userID int64) (*api.ProfileResponse, *api.APIError) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		s.logger.Error("looking up profile", "error", err)
		return nil, api.NewServerError("Could not load profile")
	}
	return &api.ProfileResponse{User: user}, nil
}

// Feed returns all posts enriched for the viewer. For every vote item the
// viewer has not voted on yet, a purpose token scoped to that post is minted
// and attached so the client can later cast exactly that vote.
func (s *Service) Feed(ctx context.Context, viewerID int64) ([]*api.Post, *api.APIError) {
	posts, err := s.store.Feed(ctx, viewerID)
	if err != nil {
		s.logger.Error("loading feed", "error", err)
		return nil, api.NewServerError("Could not load feed")
	}

	now := s.now()
	for _, p := range posts {
		if p.Type != api.PostTypeVoteItem || p.HasVoted {
			continue
		}
		token, issueErr := s.purposes.Issue(viewerID, p.ID, auth.PurposeItemVote, now)
		if issueErr != nil {
			s.logger.Error("minting vote token", "post_id", p.ID, "error", issueErr)
			return nil, api.NewServerError("Could not load feed")
		}
		p.VoteAuthToken = token
		observability.VoteTokensIssuedTotal.Inc()
	}

	if posts == nil {
		posts = []*api.Post{}
	}
	return posts, nil
}

// CreatePost creates a post of any type. Citizens may not publish
// announcements or vote items.
func (s *Service) CreatePost(ctx context.Context, authorID int64, req *api.CreatePostRequest) (int64, *api.APIError) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	author, err := s.store.UserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, api.NewNotFoundError("User not found")
		}
		s.logger.Error("looking up author", "error", err)
		return 0, api.NewServerError("Could not create post")
	}

	postType := api.PostType(req.PostType)
	if author.Role != api.RoleOfficial &&
		(postType == api.PostTypeAnnouncement || postType == api.PostTypeVoteItem) {
		return 0, api.NewForbiddenError("Only officials can create this type of post")
	}

	options := make([]string, 0, len(req.Options))
	if postType == api.PostTypePoll {
		for _, opt := range req.Options {
			if opt != "" {
				options = append(options, opt)
			}
		}
	}

	id, err := s.store.CreatePost(ctx, storage.NewPost{
		AuthorID:      authorID,
		Type:          postType,
		Title:         req.Title,
		Content:       req.Content,
		AllowComments: req.AllowComments,
		Options:       options,
	})
	if err != nil {
		s.logger.Error("creating post", "error", err)
		return 0, api.NewServerError("Could not create post")
	}

	s.logger.Info("post created", "post_id", id, "type", postType, "author_id", authorID)
	return id, nil
}

// AddComment appends a comment to a post that allows them.
func (s *Service) AddComment(ctx context.Context, userID int64, req *api.CreateCommentRequest) *api.APIError {
	if err := req.Validate(); err != nil {
		return err
	}
	postID, _ := api.ParseID(req.PostID)

	_, err := s.store.CreateComment(ctx, postID, userID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return api.NewNotFoundError("Post not found")
		case errors.Is(err, storage.ErrCommentsDisabled):
			return api.NewForbiddenError("Comments are disabled for this post")
		}
		s.logger.Error("creating comment", "error", err)
		return api.NewServerError("Could not add comment")
	}
	return nil
}

// ListComments returns one page of a post's comments, oldest first. NextPage
// is nil once the post has no further comments.
func (s *Service) ListComments(ctx context.Context, postID int64, page int) (*api.CommentPage, *api.APIError) {
	if page < 1 {
		return nil, api.NewInvalidRequestError("page", "page must be a positive integer")
	}

	offset := (page - 1) * CommentPageSize
	comments, total, err := s.store.Comments(ctx, postID, offset, CommentPageSize)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("Post not found")
		}
		s.logger.Error("listing comments", "error", err)
		return nil, api.NewServerError("Could not load comments")
	}

	if comments == nil {
		comments = []*api.Comment{}
	}
	result := &api.CommentPage{Comments: comments}
	if offset+len(comments) < total {
		next := page + 1
		result.NextPage = &next
	}
	return result, nil
}

// CastPollVote records the user's poll vote.
func (s *Service) CastPollVote(ctx context.Context, userID int64, req *api.PollVoteRequest) *api.APIError {
	if err := req.Validate(); err != nil {
		return err
	}
	postID, _ := api.ParseID(req.PostID)
	optionID, _ := api.ParseID(req.OptionID)

	err := s.store.CastPollVote(ctx, postID, optionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return api.NewNotFoundError("Post or option not found")
		case errors.Is(err, storage.ErrVoteExists):
			return api.NewConflictError("You have already voted on this poll")
		}
		s.logger.Error("casting poll vote", "error", err)
		return api.NewServerError("Could not record vote")
	}

	observability.VotesRecordedTotal.WithLabelValues("poll").Inc()
	return nil
}

// CastItemVote records a final vote on a vote item. The request's purpose
// token is cross-checked against the session principal, the target post, and
// the item-vote purpose before any state changes.
func (s *Service) CastItemVote(ctx context.Context, principal int64, req *api.ItemVoteRequest) *api.APIError {
	if err := req.Validate(); err != nil {
		return err
	}
	postID, _ := api.ParseID(req.PostID)

	if authErr := s.gate.Authorize(principal, req.AuthToken, postID, auth.PurposeItemVote, s.now()); authErr != nil {
		observability.AuthFailuresTotal.WithLabelValues(authFailureReason(authErr)).Inc()
		s.logger.Warn("item vote rejected",
			"principal", principal,
			"post_id", postID,
			"reason", authErr.Message,
		)
		return authError(authErr)
	}

	err := s.store.CastItemVote(ctx, postID, principal, api.VoteChoice(req.Choice))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return api.NewNotFoundError("Post not found")
		case errors.Is(err, storage.ErrVoteExists):
			return api.NewConflictError("You have already voted on this item")
		}
		s.logger.Error("casting item vote", "error", err)
		return api.NewServerError("Could not record vote")
	}

	observability.VotesRecordedTotal.WithLabelValues("item").Inc()
	s.logger.Info("item vote recorded", "post_id", postID, "principal", principal)
	return nil
}

// authFailureReason labels a rejection for the failure counter.
func authFailureReason(err *auth.Error) string {
	switch err.Kind {
	case auth.KindMissing:
		return "missing"
	case auth.KindMalformed:
		return "malformed"
	case auth.KindSignatureInvalid:
		return "signature_invalid"
	case auth.KindExpired:
		return "expired"
	case auth.KindIdentityMismatch:
		return "identity_mismatch"
	case auth.KindTargetMismatch:
		return "target_mismatch"
	case auth.KindPurposeMismatch:
		return "purpose_mismatch"
	default:
		return "unknown"
	}
}

// authError carries an auth failure across the service boundary, keeping
// its stable message and its 401-versus-403 classification.
func authError(err *auth.Error) *api.APIError {
	if err.Status() == http.StatusForbidden {
		return api.NewForbiddenError(err.Message)
	}
	return api.NewUnauthorizedError(err.Message)
}
