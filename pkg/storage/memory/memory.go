// Package memory provides an in-memory implementation of storage.Store for
// tests and lightweight deployments. All data is lost when the process
// restarts.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/storage"
)

// postEntry holds a stored post and the ids of its poll options.
type postEntry struct {
	post      api.Post
	optionIDs []int64
}

// optionEntry holds a stored poll option and its owning post.
type optionEntry struct {
	postID int64
	text   string
}

// Store is a mutex-guarded in-memory storage.Store. The mutex guards only
// map access; it is never held across a caller's operation.
type Store struct {
	mu           sync.RWMutex
	users        map[int64]api.User
	emailIndex   map[string]int64
	nameIndex    map[string]int64
	posts        map[int64]*postEntry
	options      map[int64]*optionEntry
	pollVotes    map[int64]map[int64]int64          // post id -> voter id -> option id
	itemVotes    map[int64]map[int64]api.VoteChoice // post id -> voter id -> choice
	comments     map[int64][]api.Comment            // post id -> oldest first
	nextUser     int64
	nextPost     int64
	nextOption   int64
	nextComment  int64
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[int64]api.User),
		emailIndex: make(map[string]int64),
		nameIndex:  make(map[string]int64),
		posts:      make(map[int64]*postEntry),
		options:    make(map[int64]*optionEntry),
		pollVotes:  make(map[int64]map[int64]int64),
		itemVotes:  make(map[int64]map[int64]api.VoteChoice),
		comments:   make(map[int64][]api.Comment),
	}
}

// CreateUser inserts a credential record.
func (s *Store) CreateUser(_ context.Context, username, email, passwordHash string, role api.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := strings.ToLower(username)
	emailKey := strings.ToLower(email)
	if _, exists := s.nameIndex[nameKey]; exists {
		return 0, storage.ErrDuplicate
	}
	if _, exists := s.emailIndex[emailKey]; exists {
		return 0, storage.ErrDuplicate
	}

	s.nextUser++
	id := s.nextUser
	s.users[id] = api.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		RegisteredAt: time.Now().UTC(),
	}
	s.nameIndex[nameKey] = id
	s.emailIndex[emailKey] = id
	return id, nil
}

// UserByEmail fetches a user including the stored password hash.
func (s *Store) UserByEmail(_ context.Context, email string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIndex[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

// UserByID fetches a user's profile fields.
func (s *Store) UserByID(_ context.Context, id int64) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

// CreatePost inserts a post and its poll options.
func (s *Store) CreatePost(_ context.Context, p storage.NewPost) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[p.AuthorID]
	if !ok {
		return 0, storage.ErrNotFound
	}

	s.nextPost++
	id := s.nextPost
	entry := &postEntry{
		post: api.Post{
			ID:             id,
			Type:           p.Type,
			Title:          p.Title,
			Content:        p.Content,
			AuthorID:       p.AuthorID,
			AuthorUsername: author.Username,
			AllowComments:  p.AllowComments,
			CreatedAt:      time.Now().UTC(),
		},
	}

	for _, text := range p.Options {
		s.nextOption++
		s.options[s.nextOption] = &optionEntry{postID: id, text: text}
		entry.optionIDs = append(entry.optionIDs, s.nextOption)
	}

	s.posts[id] = entry
	return id, nil
}

// PostByID fetches a post's base fields.
func (s *Store) PostByID(_ context.Context, id int64) (*api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	p := entry.post
	return &p, nil
}

// Feed returns all posts newest first, enriched for the viewer.
func (s *Store) Feed(_ context.Context, viewerID int64) ([]*api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feed := make([]*api.Post, 0, len(s.posts))
	for id, entry := range s.posts {
		p := entry.post
		p.CommentCount = len(s.comments[id])

		switch p.Type {
		case api.PostTypePoll:
			tallies := make(map[int64]int)
			for _, optionID := range s.pollVotes[id] {
				tallies[optionID]++
			}
			for _, optionID := range entry.optionIDs {
				p.Options = append(p.Options, api.PollOption{
					ID:        optionID,
					Text:      s.options[optionID].text,
					VoteCount: tallies[optionID],
				})
			}
			if _, voted := s.pollVotes[id][viewerID]; voted {
				p.HasVoted = true
			}
		case api.PostTypeVoteItem:
			p.VoteCounts = map[api.VoteChoice]int{
				api.ChoiceFor:     0,
				api.ChoiceAgainst: 0,
				api.ChoiceAbstain: 0,
			}
			for _, choice := range s.itemVotes[id] {
				p.VoteCounts[choice]++
			}
			if choice, voted := s.itemVotes[id][viewerID]; voted {
				p.HasVoted = true
				p.VoteType = choice
			}
		}

		feed = append(feed, &p)
	}

	sort.Slice(feed, func(i, j int) bool { return feed[i].ID > feed[j].ID })
	return feed, nil
}

// CreateComment appends a comment to a post.
func (s *Store) CreateComment(_ context.Context, postID, userID int64, content string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.posts[postID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if !entry.post.AllowComments {
		return 0, storage.ErrCommentsDisabled
	}
	user, ok := s.users[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}

	s.nextComment++
	s.comments[postID] = append(s.comments[postID], api.Comment{
		ID:        s.nextComment,
		PostID:    postID,
		UserID:    userID,
		Username:  user.Username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	return s.nextComment, nil
}

// Comments returns a page of comments (oldest first) plus the total count.
func (s *Store) Comments(_ context.Context, postID int64, offset, limit int) ([]*api.Comment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.posts[postID]; !ok {
		return nil, 0, storage.ErrNotFound
	}

	all := s.comments[postID]
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*api.Comment, 0, end-offset)
	for i := offset; i < end; i++ {
		c := all[i]
		page = append(page, &c)
	}
	return page, total, nil
}

// CastPollVote records a poll vote.
func (s *Store) CastPollVote(_ context.Context, postID, optionID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return storage.ErrNotFound
	}
	option, ok := s.options[optionID]
	if !ok || option.postID != postID {
		return storage.ErrNotFound
	}

	votes := s.pollVotes[postID]
	if votes == nil {
		votes = make(map[int64]int64)
		s.pollVotes[postID] = votes
	}
	if _, voted := votes[userID]; voted {
		return storage.ErrVoteExists
	}
	votes[userID] = optionID
	return nil
}

// CastItemVote records a final vote on a vote item.
func (s *Store) CastItemVote(_ context.Context, postID, userID int64, choice api.VoteChoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return storage.ErrNotFound
	}

	votes := s.itemVotes[postID]
	if votes == nil {
		votes = make(map[int64]api.VoteChoice)
		s.itemVotes[postID] = votes
	}
	if _, voted := votes[userID]; voted {
		return storage.ErrVoteExists
	}
	votes[userID] = choice
	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }
