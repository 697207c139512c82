package api

import "time"

// Role classifies a registered user.
type Role string

const (
	// RoleCitizen is the default role assigned at registration.
	RoleCitizen Role = "Citizen"

	// RoleOfficial may additionally publish announcements and vote items.
	RoleOfficial Role = "Official"
)

// PostType discriminates the four kinds of feed posts.
type PostType string

const (
	PostTypePoll         PostType = "Poll"
	PostTypeAnnouncement PostType = "Announcement"
	PostTypeForumTopic   PostType = "ForumTopic"
	PostTypeVoteItem     PostType = "VoteItem"
)

// ValidPostType reports whether s names a known post type.
func ValidPostType(s string) bool {
	switch PostType(s) {
	case PostTypePoll, PostTypeAnnouncement, PostTypeForumTopic, PostTypeVoteItem:
		return true
	}
	return false
}

// VoteChoice is a ballot option on a vote item.
type VoteChoice string

const (
	ChoiceFor     VoteChoice = "For"
	ChoiceAgainst VoteChoice = "Against"
	ChoiceAbstain VoteChoice = "Abstain"
)

// ValidVoteChoice reports whether s names a known ballot choice.
func ValidVoteChoice(s string) bool {
	switch VoteChoice(s) {
	case ChoiceFor, ChoiceAgainst, ChoiceAbstain:
		return true
	}
	return false
}

// User is a registered principal. PasswordHash is populated only on the
// credential lookup path and is never serialized.
type User struct {
	ID           int64     `json:"UserID"`
	Username     string    `json:"Username"`
	Email        string    `json:"Email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"Role"`
	RegisteredAt time.Time `json:"RegistrationTimestamp"`
}

// PollOption is a single selectable answer on a poll post.
type PollOption struct {
	ID        int64  `json:"OptionID"`
	Text      string `json:"OptionText"`
	VoteCount int    `json:"VoteCount"`
}

// Post is a feed entry. Type-specific fields are populated according to
// Type: Options for polls, VoteCounts for vote items, Content for the rest.
// The viewer-dependent fields (HasVoted, VoteType, VoteAuthToken) are filled
// by the feed assembly for the requesting principal.
type Post struct {
	ID             int64        `json:"PostID"`
	Type           PostType     `json:"PostType"`
	Title          string       `json:"Title"`
	Content        string       `json:"Content,omitempty"`
	AuthorID       int64        `json:"-"`
	AuthorUsername string       `json:"AuthorUsername"`
	AllowComments  bool         `json:"AllowComments"`
	CreatedAt      time.Time    `json:"CreationTimestamp"`
	Options        []PollOption `json:"Options,omitempty"`
	VoteCounts     map[VoteChoice]int `json:"VoteCounts,omitempty"`
	CommentCount   int          `json:"CommentCount"`
	HasVoted       bool         `json:"userHasVoted"`
	VoteType       VoteChoice   `json:"userVoteType,omitempty"`
	VoteAuthToken  string       `json:"voteAuthToken,omitempty"`
}

// Comment is a single comment on a post.
type Comment struct {
	ID        int64     `json:"-"`
	PostID    int64     `json:"-"`
	UserID    int64     `json:"-"`
	Username  string    `json:"Username"`
	Content   string    `json:"Content"`
	CreatedAt time.Time `json:"Timestamp"`
}

// CommentPage is the paginated comment listing response.
type CommentPage struct {
	Comments []*Comment `json:"comments"`
	NextPage *int       `json:"nextPage"`
}

// MessageResponse is a plain acknowledgement envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse carries a freshly issued session token.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ProfileResponse wraps the authenticated user's profile.
type ProfileResponse struct {
	User *User `json:"user"`
}
