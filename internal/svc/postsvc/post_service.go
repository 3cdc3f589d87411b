package postsvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/xlan/socialdesk/internal/domain"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/repo/post"
)

// sharesBucketWidth is the band size of the shares distribution histogram.
const sharesBucketWidth = 100

// PostService provides post creation, retrieval, deletion, ranked top-N
// queries and the shares distribution analytics.
type PostService struct {
	Repo post.Repository
	Log  logging.Logger
}

// NewPostService creates a new PostService with the given post repository
// factory.
// Returns an error if the repository cannot be created.
func NewPostService(repoFactory post.RepositoryFactory) (*PostService, error) {
	repo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new post repo: %w", err)
	}

	return &PostService{
		Repo: repo,
		Log:  logging.GetLogger("svc.postsvc.post_service"),
	}, nil
}

// AddPost stores a new post owned by ownerID.
// Content, author and timestamp must be non-empty, likes and shares must not
// be negative, and content must not contain a comma so the CSV export
// contract (no field escaping) can hold. Violations yield ErrValidation
// without touching the store.
func (s *PostService) AddPost(
	ctx context.Context,
	ownerID int64,
	content, author string,
	likes, shares int64,
	timestamp string,
) (_ *domain.Post, err error) {
	log := s.Log.With(logging.Group("post", "owner", ownerID))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "add post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post added")
		}
	}()

	switch {
	case content == "" || author == "" || timestamp == "":
		return nil, fmt.Errorf("%w: content, author and timestamp are required", domain.ErrValidation)
	case likes < 0 || shares < 0:
		return nil, fmt.Errorf("%w: likes and shares must not be negative", domain.ErrValidation)
	case strings.Contains(content, ","):
		return nil, fmt.Errorf("%w: content must not contain a comma", domain.ErrValidation)
	}

	p, err := s.Repo.Create(ctx, ownerID, content, author, likes, shares, timestamp)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	return p, nil
}

// Exists reports whether a post with the given id exists.
func (s *PostService) Exists(ctx context.Context, postID int64) (bool, error) {
	ok, err := s.Repo.Exists(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("check post: %w", err)
	}

	return ok, nil
}

// GetPost retrieves a post by its id.
// Returns ErrPostNotFound for an unknown id.
func (s *PostService) GetPost(ctx context.Context, postID int64) (*domain.Post, error) {
	p, ok, err := s.Repo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	if !ok {
		return nil, domain.ErrPostNotFound
	}

	return p, nil
}

// RemovePost deletes the post with the given id.
// Returns ErrPostNotFound for an unknown id; the store is unchanged then.
func (s *PostService) RemovePost(ctx context.Context, postID int64) (err error) {
	log := s.Log.With(logging.Group("post", "id", postID))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "remove post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post removed")
		}
	}()

	if err := s.Repo.DeleteByID(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}

// TopPosts returns the n most-liked posts across all accounts, ordered by
// likes descending. Equal-likes rows come back in store order; only the
// likes ordering is guaranteed. n <= 0 yields an empty slice.
func (s *PostService) TopPosts(ctx context.Context, n int) ([]domain.Post, error) {
	posts, err := s.Repo.TopN(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("top posts: %w", err)
	}

	return posts, nil
}

// TopPostsByOwner is TopPosts restricted to posts owned by ownerID.
func (s *PostService) TopPostsByOwner(
	ctx context.Context,
	n int,
	ownerID int64,
) ([]domain.Post, error) {
	posts, err := s.Repo.TopNByOwner(ctx, n, ownerID)
	if err != nil {
		return nil, fmt.Errorf("top posts by owner: %w", err)
	}

	return posts, nil
}

// SharesDistribution returns the histogram of share counts over all posts,
// bucketed in bands of 100, ordered by band. An empty store yields an empty
// slice.
func (s *PostService) SharesDistribution(ctx context.Context) ([]domain.SharesBucket, error) {
	buckets, err := s.Repo.SharesHistogram(ctx, sharesBucketWidth)
	if err != nil {
		return nil, fmt.Errorf("shares histogram: %w", err)
	}

	return buckets, nil
}
