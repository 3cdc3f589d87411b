package exportsvc_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/xlan/socialdesk/internal/domain"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/session"
	"github.com/xlan/socialdesk/internal/svc/exportsvc"
)

// mockPostRepository implements post.Repository for testing; only the
// operations the export service touches have real behavior.
type mockPostRepository struct {
	posts map[int64]*domain.Post
	m     sync.Mutex
}

func newMockPostRepo(posts ...domain.Post) *mockPostRepository {
	repo := &mockPostRepository{posts: make(map[int64]*domain.Post)}

	for i := range posts {
		repo.posts[posts[i].ID] = &posts[i]
	}

	return repo
}

func (m *mockPostRepository) Exists(_ context.Context, postID int64) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	_, ok := m.posts[postID]

	return ok, nil
}

func (m *mockPostRepository) Create(
	_ context.Context, ownerID int64, content, author string,
	likes, shares int64, timestamp string,
) (*domain.Post, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPostRepository) InsertWithID(_ context.Context, p domain.Post) error {
	m.m.Lock()
	defer m.m.Unlock()

	if _, exists := m.posts[p.ID]; exists {
		return domain.ErrPostExists
	}

	m.posts[p.ID] = &p

	return nil
}

func (m *mockPostRepository) GetByID(_ context.Context, postID int64) (*domain.Post, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return nil, false, nil
	}

	clone := *p

	return &clone, true, nil
}

func (m *mockPostRepository) DeleteByID(_ context.Context, postID int64) error {
	return errors.New("not implemented")
}

func (m *mockPostRepository) TopN(_ context.Context, n int) ([]domain.Post, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPostRepository) TopNByOwner(_ context.Context, n int, ownerID int64) ([]domain.Post, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPostRepository) Count(_ context.Context) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()

	return int64(len(m.posts)), nil
}

func (m *mockPostRepository) SharesHistogram(_ context.Context, width int64) ([]domain.SharesBucket, error) {
	return nil, errors.New("not implemented")
}

func setupExportService(t *testing.T, posts ...domain.Post) (*exportsvc.ExportService, *mockPostRepository) {
	t.Helper()

	mockRepo := newMockPostRepo(posts...)

	svc := &exportsvc.ExportService{
		Repo: mockRepo,
		Log:  logging.NewNopLogger(),
	}

	return svc, mockRepo
}

func vipSession(t *testing.T) *session.Session {
	t.Helper()

	sess, err := session.New(&domain.Account{ID: 7, Username: "vip", IsVIP: true})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	return sess
}

func regularSession(t *testing.T) *session.Session {
	t.Helper()

	sess, err := session.New(&domain.Account{ID: 8, Username: "basic", IsVIP: false})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	return sess
}

var testPost = domain.Post{
	ID:        3,
	OwnerID:   1,
	Content:   "hello world",
	Author:    "anon",
	Likes:     5,
	Shares:    2,
	Timestamp: "01/01/2024 10:00",
}

func TestExportService_ExportPost(t *testing.T) {
	t.Parallel()

	svc, _ := setupExportService(t, testPost)
	dir := t.TempDir()

	if err := svc.ExportPost(context.TODO(), testPost.ID, "out", dir); err != nil {
		t.Fatalf("export: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatalf("read export file: %v", err)
	}

	want := "Post ID,Author,Content,Likes,Shares,Date_Time\n" +
		"3,anon,hello world,5,2,01/01/2024 10:00\n"

	if string(content) != want {
		t.Errorf("file content mismatch\nwant: %q\ngot:  %q", want, string(content))
	}
}

func TestExportService_ExportPost_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		postID  int64
		folder  func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "unknown post",
			postID:  999,
			folder:  func(t *testing.T) string { t.Helper(); return t.TempDir() },
			wantErr: domain.ErrPostNotFound,
		},
		{
			name:   "missing folder",
			postID: testPost.ID,
			folder: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "nope")
			},
			wantErr: domain.ErrFolderNotFound,
		},
		{
			name:   "folder path names a file",
			postID: testPost.ID,
			folder: func(t *testing.T) string {
				t.Helper()
				path := filepath.Join(t.TempDir(), "file")

				if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
					t.Fatalf("write file: %v", err)
				}

				return path
			},
			wantErr: domain.ErrFolderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := setupExportService(t, testPost)

			err := svc.ExportPost(context.TODO(), tt.postID, "out", tt.folder(t))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExportService_ExportPost_NeverOverwrites(t *testing.T) {
	t.Parallel()

	svc, _ := setupExportService(t, testPost)
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	original := []byte("precious data\n")
	if err := os.WriteFile(target, original, 0o644); err != nil {
		t.Fatalf("write existing file: %v", err)
	}

	err := svc.ExportPost(context.TODO(), testPost.ID, "out", dir)
	if !errors.Is(err, domain.ErrFileExists) {
		t.Fatalf("want ErrFileExists, got %v", err)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	if string(content) != string(original) {
		t.Errorf("existing file was modified: %q", string(content))
	}
}

func writeImportFile(t *testing.T, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name+".csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}
}

func TestExportService_ImportPosts(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupExportService(t, testPost)
	dir := t.TempDir()

	writeImportFile(t, dir, "in",
		"Post ID,Content,Author,Likes,Shares,Date_Time\n"+
			"10,first,anon,5,2,01/01/2024 10:00\n"+
			"11,second,anon,0,0,02/01/2024 11:00\n"+
			"broken line\n"+
			"12,third,anon,NaN,0,03/01/2024 12:00\n"+
			"3,duplicate,anon,1,1,04/01/2024 13:00\n")

	sess := vipSession(t)

	report, err := svc.ImportPosts(context.TODO(), sess, "in", dir)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if report.Imported != 2 || report.Skipped != 3 {
		t.Errorf("want 2 imported / 3 skipped, got %d / %d", report.Imported, report.Skipped)
	}

	p, ok, err := mockRepo.GetByID(context.TODO(), 10)
	if err != nil || !ok {
		t.Fatalf("imported post missing: ok=%v err=%v", ok, err)
	}

	if p.OwnerID != sess.Account.ID {
		t.Errorf("imported post owner: want %d, got %d", sess.Account.ID, p.OwnerID)
	}

	if p.Content != "first" || p.Author != "anon" || p.Likes != 5 {
		t.Errorf("unexpected imported post: %+v", *p)
	}
}

func TestExportService_ImportPosts_VIPGate(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupExportService(t)
	dir := t.TempDir()

	writeImportFile(t, dir, "in",
		"Post ID,Content,Author,Likes,Shares,Date_Time\n"+
			"10,first,anon,5,2,01/01/2024 10:00\n")

	_, err := svc.ImportPosts(context.TODO(), regularSession(t), "in", dir)
	if !errors.Is(err, domain.ErrVIPRequired) {
		t.Fatalf("want ErrVIPRequired, got %v", err)
	}

	// Denial must leave no partial side effects.
	count, err := mockRepo.Count(context.TODO())
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if count != 0 {
		t.Errorf("denied import inserted %d posts", count)
	}
}

func TestExportService_ImportPosts_MissingSource(t *testing.T) {
	t.Parallel()

	svc, _ := setupExportService(t)

	if _, err := svc.ImportPosts(context.TODO(), vipSession(t), "in",
		filepath.Join(t.TempDir(), "nope")); !errors.Is(err, domain.ErrFolderNotFound) {
		t.Errorf("want ErrFolderNotFound, got %v", err)
	}

	if _, err := svc.ImportPosts(context.TODO(), vipSession(t), "in",
		t.TempDir()); !errors.Is(err, domain.ErrFileNotFound) {
		t.Errorf("want ErrFileNotFound, got %v", err)
	}
}
