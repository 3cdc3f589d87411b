package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xlan/socialdesk/internal/domain"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/repo/store"
)

const selectColumns = "id, owner_id, content, author, likes, shares, timestamp"

// SQLitePostRepository implements Repository on the shared SQLite store.
type SQLitePostRepository struct {
	store *store.Store
	log   logging.Logger
}

var _ Repository = (*SQLitePostRepository)(nil)

// SQLitePostRepositoryFactory creates a factory function that returns a new
// SQLitePostRepository bound to the given store.
// The factory function implements the RepositoryFactory type.
func SQLitePostRepositoryFactory(st *store.Store) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLitePostRepository(st), nil
	}
}

// NewSQLitePostRepository creates a new SQLitePostRepository using the given
// store's connection.
func NewSQLitePostRepository(st *store.Store) *SQLitePostRepository {
	return &SQLitePostRepository{
		store: st,
		log:   logging.GetLogger("repo.post.sqlite_post_repository"),
	}
}

// Exists implements Repository.Exists using SQLite.
func (r *SQLitePostRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var count int

	err := r.store.DB().GetContext(ctx, &count,
		"SELECT COUNT(1) FROM posts WHERE id = ?",
		postID,
	)
	if err != nil {
		return false, fmt.Errorf("query post: %w", err)
	}

	return count > 0, nil
}

// Create implements Repository.Create using SQLite.
func (r *SQLitePostRepository) Create(
	ctx context.Context,
	ownerID int64,
	content, author string,
	likes, shares int64,
	timestamp string,
) (*domain.Post, error) {
	unlock := r.store.LockWrites()
	defer unlock()

	res, err := r.store.DB().ExecContext(ctx,
		"INSERT INTO posts (owner_id, content, author, likes, shares, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		ownerID,
		content,
		author,
		likes,
		shares,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &domain.Post{
		ID:        id,
		OwnerID:   ownerID,
		Content:   content,
		Author:    author,
		Likes:     likes,
		Shares:    shares,
		Timestamp: timestamp,
	}, nil
}

// InsertWithID implements Repository.InsertWithID using SQLite.
func (r *SQLitePostRepository) InsertWithID(ctx context.Context, p domain.Post) error {
	unlock := r.store.LockWrites()
	defer unlock()

	_, err := r.store.DB().ExecContext(ctx,
		"INSERT INTO posts (id, owner_id, content, author, likes, shares, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID,
		p.OwnerID,
		p.Content,
		p.Author,
		p.Likes,
		p.Shares,
		p.Timestamp,
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			switch liteErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
				fallthrough
			case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				err = errors.Join(domain.ErrPostExists, err)
			}
		}

		return fmt.Errorf("insert post with id: %w", err)
	}

	return nil
}

// GetByID implements Repository.GetByID using SQLite.
func (r *SQLitePostRepository) GetByID(ctx context.Context, postID int64) (*domain.Post, bool, error) {
	var p domain.Post

	err := r.store.DB().GetContext(ctx, &p,
		"SELECT "+selectColumns+" FROM posts WHERE id = ?",
		postID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query post: %w", err)
	}

	return &p, true, nil
}

// DeleteByID implements Repository.DeleteByID using SQLite.
func (r *SQLitePostRepository) DeleteByID(ctx context.Context, postID int64) error {
	unlock := r.store.LockWrites()
	defer unlock()

	res, err := r.store.DB().ExecContext(ctx, "DELETE FROM posts WHERE id = ?", postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrPostNotFound
	}

	return nil
}

// TopN implements Repository.TopN using SQLite.
func (r *SQLitePostRepository) TopN(ctx context.Context, n int) ([]domain.Post, error) {
	if n <= 0 {
		return []domain.Post{}, nil
	}

	posts := []domain.Post{}

	err := r.store.DB().SelectContext(ctx, &posts,
		"SELECT "+selectColumns+" FROM posts ORDER BY likes DESC LIMIT ?",
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query top posts: %w", err)
	}

	return posts, nil
}

// TopNByOwner implements Repository.TopNByOwner using SQLite.
func (r *SQLitePostRepository) TopNByOwner(
	ctx context.Context,
	n int,
	ownerID int64,
) ([]domain.Post, error) {
	if n <= 0 {
		return []domain.Post{}, nil
	}

	posts := []domain.Post{}

	err := r.store.DB().SelectContext(ctx, &posts,
		"SELECT "+selectColumns+" FROM posts WHERE owner_id = ? ORDER BY likes DESC LIMIT ?",
		ownerID,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query top posts by owner: %w", err)
	}

	return posts, nil
}

// Count implements Repository.Count using SQLite.
func (r *SQLitePostRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := r.store.DB().GetContext(ctx, &count, "SELECT COUNT(1) FROM posts"); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}

	return count, nil
}

// SharesHistogram implements Repository.SharesHistogram using SQLite.
func (r *SQLitePostRepository) SharesHistogram(
	ctx context.Context,
	width int64,
) ([]domain.SharesBucket, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: bucket width must be positive", domain.ErrValidation)
	}

	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT (shares / ?) * ? AS low, COUNT(1) FROM posts GROUP BY low ORDER BY low",
		width,
		width,
	)
	if err != nil {
		return nil, fmt.Errorf("query shares histogram: %w", err)
	}
	defer rows.Close()

	buckets := []domain.SharesBucket{}

	for rows.Next() {
		var b domain.SharesBucket

		if err := rows.Scan(&b.Low, &b.Count); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}

		buckets = append(buckets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}

	return buckets, nil
}
