// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 connection pooling; uniqueness (usernames, emails, one
// vote per principal per post) is enforced by database constraints and
// surfaced as the storage sentinel errors.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// CreateUser inserts a credential record.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string, role api.Role) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id
	`, username, email, passwordHash, string(role)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrDuplicate
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return id, nil
}

// UserByEmail fetches a user including the stored password hash.
func (s *Store) UserByEmail(ctx context.Context, email string) (*api.User, error) {
	u := &api.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, username, email, password_hash, role, registered_at
		FROM users WHERE lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return u, nil
}

// UserByID fetches a user's profile fields.
func (s *Store) UserByID(ctx context.Context, id int64) (*api.User, error) {
	u := &api.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, username, email, password_hash, role, registered_at
		FROM users WHERE user_id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return u, nil
}

// CreatePost inserts a post and its poll options in one transaction.
func (s *Store) CreatePost(ctx context.Context, p storage.NewPost) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO posts (author_id, post_type, title, content, allow_comments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING post_id
	`, p.AuthorID, string(p.Type), p.Title, p.Content, p.AllowComments).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("inserting post: %w", err)
	}

	for _, text := range p.Options {
		if _, err := tx.Exec(ctx, `
			INSERT INTO poll_options (post_id, option_text) VALUES ($1, $2)
		`, id, text); err != nil {
			return 0, fmt.Errorf("inserting poll option: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing post: %w", err)
	}
	return id, nil
}

// PostByID fetches a post's base fields.
func (s *Store) PostByID(ctx context.Context, id int64) (*api.Post, error) {
	p := &api.Post{}
	err := s.pool.QueryRow(ctx, `
		SELECT p.post_id, p.post_type, p.title, p.content, p.allow_comments,
		       p.created_at, p.author_id, u.username
		FROM posts p
		JOIN users u ON u.user_id = p.author_id
		WHERE p.post_id = $1
	`, id).Scan(&p.ID, &p.Type, &p.Title, &p.Content, &p.AllowComments,
		&p.CreatedAt, &p.AuthorID, &p.AuthorUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying post: %w", err)
	}
	return p, nil
}

// Feed returns all posts newest first, enriched for the viewer.
func (s *Store) Feed(ctx context.Context, viewerID int64) ([]*api.Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.post_id, p.post_type, p.title, p.content, p.allow_comments,
		       p.created_at, p.author_id, u.username,
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.post_id)
		FROM posts p
		JOIN users u ON u.user_id = p.author_id
		ORDER BY p.post_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}
	defer rows.Close()

	var feed []*api.Post
	byID := make(map[int64]*api.Post)
	for rows.Next() {
		p := &api.Post{}
		if err := rows.Scan(&p.ID, &p.Type, &p.Title, &p.Content, &p.AllowComments,
			&p.CreatedAt, &p.AuthorID, &p.AuthorUsername, &p.CommentCount); err != nil {
			return nil, fmt.Errorf("scanning feed row: %w", err)
		}
		if p.Type == api.PostTypeVoteItem {
			p.VoteCounts = map[api.VoteChoice]int{
				api.ChoiceFor:     0,
				api.ChoiceAgainst: 0,
				api.ChoiceAbstain: 0,
			}
		}
		feed = append(feed, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feed rows: %w", err)
	}

	if err := s.attachPollState(ctx, byID, viewerID); err != nil {
		return nil, err
	}
	if err := s.attachItemVoteState(ctx, byID, viewerID); err != nil {
		return nil, err
	}
	return feed, nil
}

// attachPollState fills poll options, tallies, and the viewer's vote flag.
func (s *Store) attachPollState(ctx context.Context, byID map[int64]*api.Post, viewerID int64) error {
	rows, err := s.pool.Query(ctx, `
		SELECT o.post_id, o.option_id, o.option_text,
		       (SELECT COUNT(*) FROM poll_votes v WHERE v.option_id = o.option_id)
		FROM poll_options o
		ORDER BY o.option_id
	`)
	if err != nil {
		return fmt.Errorf("querying poll options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var opt api.PollOption
		if err := rows.Scan(&postID, &opt.ID, &opt.Text, &opt.VoteCount); err != nil {
			return fmt.Errorf("scanning poll option: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Options = append(p.Options, opt)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating poll options: %w", err)
	}

	voted, err := s.pool.Query(ctx,
		`SELECT post_id FROM poll_votes WHERE user_id = $1`, viewerID)
	if err != nil {
		return fmt.Errorf("querying viewer poll votes: %w", err)
	}
	defer voted.Close()

	for voted.Next() {
		var postID int64
		if err := voted.Scan(&postID); err != nil {
			return fmt.Errorf("scanning viewer poll vote: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.HasVoted = true
		}
	}
	return voted.Err()
}

// attachItemVoteState fills item-vote tallies and the viewer's choice.
func (s *Store) attachItemVoteState(ctx context.Context, byID map[int64]*api.Post, viewerID int64) error {
	rows, err := s.pool.Query(ctx, `
		SELECT post_id, choice, COUNT(*) FROM item_votes GROUP BY post_id, choice
	`)
	if err != nil {
		return fmt.Errorf("querying item vote tallies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var choice string
		var count int
		if err := rows.Scan(&postID, &choice, &count); err != nil {
			return fmt.Errorf("scanning item vote tally: %w", err)
		}
		if p, ok := byID[postID]; ok && p.VoteCounts != nil {
			p.VoteCounts[api.VoteChoice(choice)] = count
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating item vote tallies: %w", err)
	}

	voted, err := s.pool.Query(ctx,
		`SELECT post_id, choice FROM item_votes WHERE user_id = $1`, viewerID)
	if err != nil {
		return fmt.Errorf("querying viewer item votes: %w", err)
	}
	defer voted.Close()

	for voted.Next() {
		var postID int64
		var choice string
		if err := voted.Scan(&postID, &choice); err != nil {
			return fmt.Errorf("scanning viewer item vote: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.HasVoted = true
			p.VoteType = api.VoteChoice(choice)
		}
	}
	return voted.Err()
}

// CreateComment appends a comment to a post that allows them.
func (s *Store) CreateComment(ctx context.Context, postID, userID int64, content string) (int64, error) {
	var allow bool
	err := s.pool.QueryRow(ctx,
		`SELECT allow_comments FROM posts WHERE post_id = $1`, postID).Scan(&allow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("querying post for comment: %w", err)
	}
	if !allow {
		return 0, storage.ErrCommentsDisabled
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO comments (post_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING comment_id
	`, postID, userID, content).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("inserting comment: %w", err)
	}
	return id, nil
}

// Comments returns a page of comments (oldest first) plus the total count.
func (s *Store) Comments(ctx context.Context, postID int64, offset, limit int) ([]*api.Comment, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM comments WHERE post_id = p.post_id)
		FROM posts p WHERE p.post_id = $1
	`, postID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, storage.ErrNotFound
		}
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT c.comment_id, c.post_id, c.user_id, u.username, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.user_id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.comment_id
		OFFSET $2 LIMIT $3
	`, postID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var page []*api.Comment
	for rows.Next() {
		c := &api.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning comment: %w", err)
		}
		page = append(page, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating comments: %w", err)
	}
	return page, total, nil
}

// CastPollVote records a poll vote. The insert carries its own check that
// the option belongs to the post, so a mismatched pair affects zero rows.
func (s *Store) CastPollVote(ctx context.Context, postID, optionID, userID int64) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO poll_votes (post_id, option_id, user_id)
		SELECT $1, $2, $3
		WHERE EXISTS (
			SELECT 1 FROM poll_options WHERE option_id = $2 AND post_id = $1
		)
	`, postID, optionID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrVoteExists
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("inserting poll vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CastItemVote records a final vote on a vote item.
func (s *Store) CastItemVote(ctx context.Context, postID, userID int64, choice api.VoteChoice) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO item_votes (post_id, user_id, choice)
		SELECT $1, $2, $3
		WHERE EXISTS (SELECT 1 FROM posts WHERE post_id = $1)
	`, postID, userID, string(choice))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrVoteExists
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("inserting item vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection is functional.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
