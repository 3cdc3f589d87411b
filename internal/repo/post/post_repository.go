package post

import (
	"context"

	"github.com/xlan/socialdesk/internal/domain"
)

// Repository defines the interface for post persistence.
type Repository interface {
	// Exists reports whether a post with the given id exists.
	Exists(ctx context.Context, postID int64) (bool, error)

	// Create inserts a new post and returns the stored row with its
	// assigned id. All value validation happens in the service layer.
	Create(
		ctx context.Context,
		ownerID int64,
		content, author string,
		likes, shares int64,
		timestamp string,
	) (*domain.Post, error)

	// InsertWithID inserts a post that carries an explicit id, as bulk
	// import requires. Returns ErrPostExists if the id is already present.
	InsertWithID(ctx context.Context, p domain.Post) error

	// GetByID retrieves a post by its id.
	// Returns the post and true if found, or nil and false if not found.
	// Returns an error if the operation fails.
	GetByID(ctx context.Context, postID int64) (*domain.Post, bool, error)

	// DeleteByID removes the post with the given id.
	// Returns ErrPostNotFound if no such post exists.
	DeleteByID(ctx context.Context, postID int64) error

	// TopN returns up to n posts ordered by likes descending. The order of
	// equal-likes rows is whatever the store yields. n <= 0 yields an empty
	// slice, n beyond the row count yields every row.
	TopN(ctx context.Context, n int) ([]domain.Post, error)

	// TopNByOwner is TopN restricted to posts owned by ownerID.
	TopNByOwner(ctx context.Context, n int, ownerID int64) ([]domain.Post, error)

	// Count returns the total number of stored posts.
	Count(ctx context.Context) (int64, error)

	// SharesHistogram groups posts into share-count bands of the given width
	// and returns the non-empty buckets ordered by band.
	SharesHistogram(ctx context.Context, width int64) ([]domain.SharesBucket, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
