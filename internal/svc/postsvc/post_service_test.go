package postsvc_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/xlan/socialdesk/internal/domain"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/svc/postsvc"
)

var ErrRepoError = errors.New("repository error")

// mockPostRepository implements post.Repository for testing.
type mockPostRepository struct {
	posts  map[int64]*domain.Post
	nextID int64
	err    error
	m      sync.Mutex
}

func newMockPostRepo() *mockPostRepository {
	return &mockPostRepository{
		posts:  make(map[int64]*domain.Post),
		nextID: 1,
	}
}

func (m *mockPostRepository) Exists(_ context.Context, postID int64) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return false, m.err
	}

	_, ok := m.posts[postID]

	return ok, nil
}

func (m *mockPostRepository) Create(
	_ context.Context,
	ownerID int64,
	content, author string,
	likes, shares int64,
	timestamp string,
) (*domain.Post, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	p := &domain.Post{
		ID:        m.nextID,
		OwnerID:   ownerID,
		Content:   content,
		Author:    author,
		Likes:     likes,
		Shares:    shares,
		Timestamp: timestamp,
	}
	m.nextID++
	m.posts[p.ID] = p

	clone := *p

	return &clone, nil
}

func (m *mockPostRepository) InsertWithID(_ context.Context, p domain.Post) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	if _, exists := m.posts[p.ID]; exists {
		return domain.ErrPostExists
	}

	m.posts[p.ID] = &p

	if p.ID >= m.nextID {
		m.nextID = p.ID + 1
	}

	return nil
}

func (m *mockPostRepository) GetByID(_ context.Context, postID int64) (*domain.Post, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	p, ok := m.posts[postID]
	if !ok {
		return nil, false, nil
	}

	clone := *p

	return &clone, true, nil
}

func (m *mockPostRepository) DeleteByID(_ context.Context, postID int64) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	if _, ok := m.posts[postID]; !ok {
		return domain.ErrPostNotFound
	}

	delete(m.posts, postID)

	return nil
}

func (m *mockPostRepository) TopN(_ context.Context, n int) ([]domain.Post, error) {
	return m.topN(n, func(domain.Post) bool { return true })
}

func (m *mockPostRepository) TopNByOwner(
	_ context.Context,
	n int,
	ownerID int64,
) ([]domain.Post, error) {
	return m.topN(n, func(p domain.Post) bool { return p.OwnerID == ownerID })
}

func (m *mockPostRepository) topN(n int, keep func(domain.Post) bool) ([]domain.Post, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	selected := []domain.Post{}

	for _, p := range m.posts {
		if keep(*p) {
			selected = append(selected, *p)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Likes > selected[j].Likes
	})

	if n <= 0 {
		return []domain.Post{}, nil
	}

	if n < len(selected) {
		selected = selected[:n]
	}

	return selected, nil
}

func (m *mockPostRepository) Count(_ context.Context) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	return int64(len(m.posts)), nil
}

func (m *mockPostRepository) SharesHistogram(
	_ context.Context,
	width int64,
) ([]domain.SharesBucket, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	counts := make(map[int64]int64)

	for _, p := range m.posts {
		counts[(p.Shares/width)*width]++
	}

	buckets := []domain.SharesBucket{}
	for low, count := range counts {
		buckets = append(buckets, domain.SharesBucket{Low: low, Count: count})
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Low < buckets[j].Low })

	return buckets, nil
}

func setupPostService(t *testing.T) (*postsvc.PostService, *mockPostRepository) {
	t.Helper()

	mockRepo := newMockPostRepo()

	svc := &postsvc.PostService{
		Repo: mockRepo,
		Log:  logging.NewNopLogger(),
	}

	return svc, mockRepo
}

func mustAddPost(t *testing.T, svc *postsvc.PostService, ownerID, likes int64) *domain.Post {
	t.Helper()

	p, err := svc.AddPost(context.TODO(), ownerID, "hello", "anon", likes, 0, "01/01/2024 10:00")
	if err != nil {
		t.Fatalf("add post: %v", err)
	}

	return p
}

func TestPostService_AddPost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		author    string
		likes     int64
		shares    int64
		timestamp string
		wantErr   error
	}{
		{
			name:      "valid post",
			content:   "hello",
			author:    "anon",
			likes:     5,
			shares:    2,
			timestamp: "01/01/2024 10:00",
		},
		{
			name:      "zero counters are valid",
			content:   "hello",
			author:    "anon",
			timestamp: "01/01/2024 10:00",
		},
		{
			name:      "empty content",
			author:    "anon",
			timestamp: "01/01/2024 10:00",
			wantErr:   domain.ErrValidation,
		},
		{
			name:      "empty author",
			content:   "hello",
			timestamp: "01/01/2024 10:00",
			wantErr:   domain.ErrValidation,
		},
		{
			name:    "empty timestamp",
			content: "hello",
			author:  "anon",
			wantErr: domain.ErrValidation,
		},
		{
			name:      "negative likes",
			content:   "hello",
			author:    "anon",
			likes:     -1,
			timestamp: "01/01/2024 10:00",
			wantErr:   domain.ErrValidation,
		},
		{
			name:      "comma in content",
			content:   "hello, world",
			author:    "anon",
			timestamp: "01/01/2024 10:00",
			wantErr:   domain.ErrValidation,
		},
		{
			// The core treats the timestamp as opaque text.
			name:      "malformed timestamp accepted",
			content:   "hello",
			author:    "anon",
			timestamp: "not a date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, mockRepo := setupPostService(t)

			p, err := svc.AddPost(context.TODO(),
				1, tt.content, tt.author, tt.likes, tt.shares, tt.timestamp)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want error %v, got %v", tt.wantErr, err)
				}

				if len(mockRepo.posts) != 0 {
					t.Error("validation failure must not touch the store")
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if p.ID == 0 {
				t.Error("expected assigned post id")
			}
		})
	}
}

func TestPostService_GetPost(t *testing.T) {
	t.Parallel()

	svc, _ := setupPostService(t)
	created := mustAddPost(t, svc, 1, 5)

	p, err := svc.GetPost(context.TODO(), created.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}

	if p.Content != "hello" || p.Likes != 5 {
		t.Errorf("unexpected post: %+v", *p)
	}

	if _, err := svc.GetPost(context.TODO(), 999); !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("want ErrPostNotFound, got %v", err)
	}
}

func TestPostService_RemovePost(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupPostService(t)
	created := mustAddPost(t, svc, 1, 5)

	if err := svc.RemovePost(context.TODO(), 999); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("want ErrPostNotFound, got %v", err)
	}

	if len(mockRepo.posts) != 1 {
		t.Error("failed delete must leave the post count unchanged")
	}

	if err := svc.RemovePost(context.TODO(), created.ID); err != nil {
		t.Fatalf("remove post: %v", err)
	}

	ok, err := svc.Exists(context.TODO(), created.ID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}

	if ok {
		t.Error("post should not exist after removal")
	}
}

func TestPostService_TopPosts(t *testing.T) {
	t.Parallel()

	svc, _ := setupPostService(t)

	likes := []int64{3, 10, 7, 1, 7}
	for _, l := range likes {
		mustAddPost(t, svc, 1, l)
	}

	tests := []struct {
		name      string
		n         int
		wantLikes []int64
	}{
		{name: "top 3", n: 3, wantLikes: []int64{10, 7, 7}},
		{name: "n beyond count returns all", n: 100, wantLikes: []int64{10, 7, 7, 3, 1}},
		{name: "exact count", n: 5, wantLikes: []int64{10, 7, 7, 3, 1}},
		{name: "zero yields empty", n: 0, wantLikes: []int64{}},
		{name: "negative yields empty", n: -3, wantLikes: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			posts, err := svc.TopPosts(context.TODO(), tt.n)
			if err != nil {
				t.Fatalf("top posts: %v", err)
			}

			if len(posts) != len(tt.wantLikes) {
				t.Fatalf("want %d posts, got %d", len(tt.wantLikes), len(posts))
			}

			for i, want := range tt.wantLikes {
				if posts[i].Likes != want {
					t.Errorf("position %d: want %d likes, got %d", i, want, posts[i].Likes)
				}
			}
		})
	}
}

func TestPostService_TopPostsByOwner(t *testing.T) {
	t.Parallel()

	svc, _ := setupPostService(t)

	mustAddPost(t, svc, 1, 10)
	mustAddPost(t, svc, 2, 8)
	mustAddPost(t, svc, 1, 3)

	posts, err := svc.TopPostsByOwner(context.TODO(), 10, 1)
	if err != nil {
		t.Fatalf("top posts by owner: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("want 2 posts, got %d", len(posts))
	}

	for _, p := range posts {
		if p.OwnerID != 1 {
			t.Errorf("post %d belongs to owner %d", p.ID, p.OwnerID)
		}
	}

	if posts[0].Likes < posts[1].Likes {
		t.Error("posts not ordered by likes descending")
	}
}

func TestPostService_SharesDistribution(t *testing.T) {
	t.Parallel()

	svc, _ := setupPostService(t)

	empty, err := svc.SharesDistribution(context.TODO())
	if err != nil {
		t.Fatalf("shares distribution: %v", err)
	}

	if len(empty) != 0 {
		t.Fatalf("want no buckets for empty store, got %d", len(empty))
	}

	shares := []int64{0, 5, 99, 100, 250}
	for _, sh := range shares {
		if _, err := svc.AddPost(context.TODO(),
			1, "hello", "anon", 0, sh, "01/01/2024 10:00"); err != nil {
			t.Fatalf("add post: %v", err)
		}
	}

	buckets, err := svc.SharesDistribution(context.TODO())
	if err != nil {
		t.Fatalf("shares distribution: %v", err)
	}

	want := []domain.SharesBucket{
		{Low: 0, Count: 3},
		{Low: 100, Count: 1},
		{Low: 200, Count: 1},
	}

	if len(buckets) != len(want) {
		t.Fatalf("want %d buckets, got %d", len(want), len(buckets))
	}

	for i, b := range want {
		if buckets[i] != b {
			t.Errorf("bucket %d: want %+v, got %+v", i, b, buckets[i])
		}
	}
}

func TestPostService_RepoErrors(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupPostService(t)
	mockRepo.err = ErrRepoError

	if _, err := svc.AddPost(context.TODO(),
		1, "hello", "anon", 0, 0, "01/01/2024 10:00"); !errors.Is(err, ErrRepoError) {
		t.Errorf("AddPost: want ErrRepoError, got %v", err)
	}

	if _, err := svc.GetPost(context.TODO(), 1); !errors.Is(err, ErrRepoError) {
		t.Errorf("GetPost: want ErrRepoError, got %v", err)
	}

	if _, err := svc.TopPosts(context.TODO(), 3); !errors.Is(err, ErrRepoError) {
		t.Errorf("TopPosts: want ErrRepoError, got %v", err)
	}
}
