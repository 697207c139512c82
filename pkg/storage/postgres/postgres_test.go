package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/storage"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if a container runtime is not available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("edemocracy_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// makeTestUser inserts a user with a unique name and returns its id.
func makeTestUser(t *testing.T, store *Store, role api.Role) int64 {
	t.Helper()
	name := fmt.Sprintf("user_%d", time.Now().UnixNano())
	id, err := store.CreateUser(context.Background(), name, name+"@example.org", "hash", role)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return id
}

func TestPostgres_CreateAndLookupUser(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id, err := store.CreateUser(ctx, "alice", "alice@example.org", "$2a$fakehash", api.RoleCitizen)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := store.UserByEmail(ctx, "ALICE@example.org")
	if err != nil {
		t.Fatalf("UserByEmail failed: %v", err)
	}
	if byEmail.ID != id {
		t.Errorf("ID = %d, want %d", byEmail.ID, id)
	}
	if byEmail.PasswordHash != "$2a$fakehash" {
		t.Errorf("PasswordHash = %q, want stored hash", byEmail.PasswordHash)
	}

	byID, err := store.UserByID(ctx, id)
	if err != nil {
		t.Fatalf("UserByID failed: %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("Username = %q, want %q", byID.Username, "alice")
	}
	if byID.Role != api.RoleCitizen {
		t.Errorf("Role = %q, want %q", byID.Role, api.RoleCitizen)
	}
}

func TestPostgres_DuplicateUser(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, "bob", "bob@example.org", "h", api.RoleCitizen); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	// Same username in a different case.
	if _, err := store.CreateUser(ctx, "BOB", "other@example.org", "h", api.RoleCitizen); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate username: expected ErrDuplicate, got %v", err)
	}
	// Same email in a different case.
	if _, err := store.CreateUser(ctx, "bob2", "BOB@example.org", "h", api.RoleCitizen); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate email: expected ErrDuplicate, got %v", err)
	}
}

func TestPostgres_UserNotFound(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if _, err := store.UserByEmail(ctx, "nobody@example.org"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.UserByID(ctx, 999999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_PollLifecycle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	author := makeTestUser(t, store, api.RoleCitizen)
	voter := makeTestUser(t, store, api.RoleCitizen)

	postID, err := store.CreatePost(ctx, storage.NewPost{
		AuthorID:      author,
		Type:          api.PostTypePoll,
		Title:         "Transit priorities",
		AllowComments: true,
		Options:       []string{"Buses", "Bike lanes", "Rail"},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	feed, err := store.Feed(ctx, voter)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	poll := findPost(t, feed, postID)
	if len(poll.Options) != 3 {
		t.Fatalf("len(Options) = %d, want 3", len(poll.Options))
	}
	if poll.HasVoted {
		t.Error("HasVoted = true before voting")
	}

	optionID := poll.Options[1].ID
	if err := store.CastPollVote(ctx, postID, optionID, voter); err != nil {
		t.Fatalf("CastPollVote failed: %v", err)
	}

	// Second vote on the same poll, any option.
	err = store.CastPollVote(ctx, postID, poll.Options[0].ID, voter)
	if !errors.Is(err, storage.ErrVoteExists) {
		t.Errorf("repeat vote: expected ErrVoteExists, got %v", err)
	}

	feed, err = store.Feed(ctx, voter)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	poll = findPost(t, feed, postID)
	if !poll.HasVoted {
		t.Error("HasVoted = false after voting")
	}
	for _, opt := range poll.Options {
		want := 0
		if opt.ID == optionID {
			want = 1
		}
		if opt.VoteCount != want {
			t.Errorf("option %d VoteCount = %d, want %d", opt.ID, opt.VoteCount, want)
		}
	}
}

func TestPostgres_PollVoteOptionMismatch(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	author := makeTestUser(t, store, api.RoleCitizen)

	pollA, err := store.CreatePost(ctx, storage.NewPost{
		AuthorID: author, Type: api.PostTypePoll, Title: "A",
		Options: []string{"x", "y"},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	pollB, err := store.CreatePost(ctx, storage.NewPost{
		AuthorID: author, Type: api.PostTypePoll, Title: "B",
		Options: []string{"x", "y"},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	feed, err := store.Feed(ctx, author)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	optB := findPost(t, feed, pollB).Options[0].ID

	// Option from another poll affects zero rows.
	if err := store.CastPollVote(ctx, pollA, optB, author); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("mismatched option: expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_ItemVoteLifecycle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	official := makeTestUser(t, store, api.RoleOfficial)
	voter := makeTestUser(t, store, api.RoleCitizen)

	postID, err := store.CreatePost(ctx, storage.NewPost{
		AuthorID: official,
		Type:     api.PostTypeVoteItem,
		Title:    "Ordinance 42",
		Content:  "Shall the ordinance be adopted?",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := store.CastItemVote(ctx, postID, voter, api.ChoiceFor); err != nil {
		t.Fatalf("CastItemVote failed: %v", err)
	}
	if err := store.CastItemVote(ctx, postID, voter, api.ChoiceAgainst); !errors.Is(err, storage.ErrVoteExists) {
		t.Errorf("repeat vote: expected ErrVoteExists, got %v", err)
	}
	if err := store.CastItemVote(ctx, 999999, voter, api.ChoiceFor); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown post: expected ErrNotFound, got %v", err)
	}

	feed, err := store.Feed(ctx, voter)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	item := findPost(t, feed, postID)
	if !item.HasVoted {
		t.Error("HasVoted = false after item vote")
	}
	if item.VoteType != api.ChoiceFor {
		t.Errorf("VoteType = %q, want %q", item.VoteType, api.ChoiceFor)
	}
	if item.VoteCounts[api.ChoiceFor] != 1 || item.VoteCounts[api.ChoiceAgainst] != 0 {
		t.Errorf("VoteCounts = %v, want For=1 Against=0", item.VoteCounts)
	}
}

func TestPostgres_Comments(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	author := makeTestUser(t, store, api.RoleCitizen)

	postID, err := store.CreatePost(ctx, storage.NewPost{
		AuthorID: author, Type: api.PostTypeForumTopic,
		Title: "Open floor", Content: "Discuss.", AllowComments: true,
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	for i := 0; i < 7; i++ {
		if _, err := store.CreateComment(ctx, postID, author, fmt.Sprintf("comment %d", i)); err != nil {
			t.Fatalf("CreateComment %d failed: %v", i, err)
		}
	}

	page, total, err := store.Comments(ctx, postID, 0, 5)
	if err != nil {
		t.Fatalf("Comments failed: %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if len(page) != 5 {
		t.Fatalf("len(page) = %d, want 5", len(page))
	}
	if page[0].Content != "comment 0" {
		t.Errorf("first comment = %q, want oldest first", page[0].Content)
	}

	page, _, err = store.Comments(ctx, postID, 5, 5)
	if err != nil {
		t.Fatalf("Comments page 2 failed: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("len(page 2) = %d, want 2", len(page))
	}

	if _, _, err := store.Comments(ctx, 999999, 0, 5); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown post: expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_CommentsDisabled(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	official := makeTestUser(t, store, api.RoleOfficial)

	postID, err := store.CreatePost(ctx, storage.NewPost{
		AuthorID: official, Type: api.PostTypeAnnouncement,
		Title: "Road closure", Content: "Main St closed.", AllowComments: false,
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if _, err := store.CreateComment(ctx, postID, official, "first!"); !errors.Is(err, storage.ErrCommentsDisabled) {
		t.Errorf("expected ErrCommentsDisabled, got %v", err)
	}
	if _, err := store.CreateComment(ctx, 999999, official, "hi"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown post: expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_FeedOrder(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	author := makeTestUser(t, store, api.RoleCitizen)

	first, err := store.CreatePost(ctx, storage.NewPost{
		AuthorID: author, Type: api.PostTypeForumTopic, Title: "older",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	second, err := store.CreatePost(ctx, storage.NewPost{
		AuthorID: author, Type: api.PostTypeForumTopic, Title: "newer",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	feed, err := store.Feed(ctx, author)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(feed) < 2 {
		t.Fatalf("len(feed) = %d, want >= 2", len(feed))
	}
	if feed[0].ID != second || feed[1].ID != first {
		t.Errorf("feed order = [%d %d], want newest first [%d %d]",
			feed[0].ID, feed[1].ID, second, first)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func findPost(t *testing.T, feed []*api.Post, id int64) *api.Post {
	t.Helper()
	for _, p := range feed {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("post %d not in feed", id)
	return nil
}
