package exportsvc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xlan/socialdesk/internal/domain"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/repo/post"
	"github.com/xlan/socialdesk/internal/session"
)

// csvHeader is the literal first line of every exported post file.
const csvHeader = "Post ID,Author,Content,Likes,Shares,Date_Time"

// importFieldCount is the number of comma-separated fields an import line
// must carry: postid, content, author, likes, shares, datetime.
const importFieldCount = 6

// ImportReport summarizes one bulk import run.
type ImportReport struct {
	Imported int // Rows inserted
	Skipped  int // Lines dropped for wrong field count, bad numbers or duplicate ids
}

// ExportService serializes single post records to CSV files and bulk-imports
// post records from CSV files. Fields are written verbatim, without escaping;
// post content is guaranteed comma-free at creation time.
type ExportService struct {
	Repo post.Repository
	Log  logging.Logger
}

// NewExportService creates a new ExportService with the given post
// repository factory.
// Returns an error if the repository cannot be created.
func NewExportService(repoFactory post.RepositoryFactory) (*ExportService, error) {
	repo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new post repo: %w", err)
	}

	return &ExportService{
		Repo: repo,
		Log:  logging.GetLogger("svc.exportsvc.export_service"),
	}, nil
}

// ExportPost writes the post with the given id to folderPath/fileName.csv as
// a header line plus one data row. It never overwrites: an existing target
// file yields ErrFileExists and the file is left untouched.
// Returns ErrPostNotFound for an unknown post id and ErrFolderNotFound when
// folderPath does not name an existing directory.
func (s *ExportService) ExportPost(
	ctx context.Context,
	postID int64,
	fileName, folderPath string,
) (err error) {
	log := s.Log.With(logging.Group("export",
		"post", postID,
		"file", fileName,
		"folder", folderPath,
	))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "export failed", "error", err)
		} else {
			log.InfoContext(ctx, "post exported")
		}
	}()

	p, ok, err := s.Repo.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}

	if !ok {
		return domain.ErrPostNotFound
	}

	if err := checkFolder(folderPath); err != nil {
		return err
	}

	target := filepath.Join(folderPath, fileName+".csv")

	// O_EXCL makes the conflict check and the create one step.
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return errors.Join(domain.ErrFileExists, err)
		}

		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	record := fmt.Sprintf("%d,%s,%s,%d,%d,%s",
		p.ID, p.Author, p.Content, p.Likes, p.Shares, p.Timestamp)

	if _, err := fmt.Fprintf(file, "%s\n%s\n", csvHeader, record); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	return nil
}

// ImportPosts reads folderPath/fileName.csv and inserts every well-formed
// row as a post owned by the session account, keeping the row's explicit
// post id. The feature is VIP-gated; a non-VIP session yields ErrVIPRequired
// before the file is even opened. Malformed lines (wrong field count,
// non-integer numerics, duplicate ids) are skipped and counted, never fatal.
func (s *ExportService) ImportPosts(
	ctx context.Context,
	sess *session.Session,
	fileName, folderPath string,
) (report ImportReport, err error) {
	log := s.Log.With(logging.Group("import",
		"file", fileName,
		"folder", folderPath,
	))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "import failed", "error", err)
		} else {
			log.InfoContext(ctx, "import finished",
				"imported", report.Imported,
				"skipped", report.Skipped,
			)
		}
	}()

	if err := sess.RequireVIP(); err != nil {
		return ImportReport{}, err
	}

	if err := checkFolder(folderPath); err != nil {
		return ImportReport{}, err
	}

	source := filepath.Join(folderPath, fileName+".csv")

	file, err := os.Open(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ImportReport{}, errors.Join(domain.ErrFileNotFound, err)
		}

		return ImportReport{}, fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	var (
		scanner    = bufio.NewScanner(file)
		headerLine = true
	)

	for scanner.Scan() {
		line := scanner.Text()

		if headerLine {
			headerLine = false

			continue
		}

		if line == "" {
			continue
		}

		p, ok := s.parseImportLine(ctx, line, sess.Account.ID)
		if !ok {
			report.Skipped++

			continue
		}

		if err := s.Repo.InsertWithID(ctx, p); err != nil {
			if errors.Is(err, domain.ErrPostExists) {
				s.Log.WarnContext(ctx, "duplicate post id, skipping line", "id", p.ID)
				report.Skipped++

				continue
			}

			return report, fmt.Errorf("insert post: %w", err)
		}

		report.Imported++
	}

	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("read import file: %w", err)
	}

	return report, nil
}

// parseImportLine splits one CSV line into a post owned by ownerID.
// Lines are split naively on commas; the export format never escapes fields.
func (s *ExportService) parseImportLine(
	ctx context.Context,
	line string,
	ownerID int64,
) (domain.Post, bool) {
	fields := strings.Split(line, ",")
	if len(fields) != importFieldCount {
		s.Log.WarnContext(ctx, "wrong field count, skipping line", "line", line)

		return domain.Post{}, false
	}

	postID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		s.Log.WarnContext(ctx, "bad post id, skipping line", "line", line)

		return domain.Post{}, false
	}

	likes, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		s.Log.WarnContext(ctx, "bad likes value, skipping line", "line", line)

		return domain.Post{}, false
	}

	shares, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		s.Log.WarnContext(ctx, "bad shares value, skipping line", "line", line)

		return domain.Post{}, false
	}

	if likes < 0 || shares < 0 {
		s.Log.WarnContext(ctx, "negative counter, skipping line", "line", line)

		return domain.Post{}, false
	}

	return domain.Post{
		ID:        postID,
		OwnerID:   ownerID,
		Content:   fields[1],
		Author:    fields[2],
		Likes:     likes,
		Shares:    shares,
		Timestamp: fields[5],
	}, true
}

// checkFolder verifies that path names an existing directory.
func checkFolder(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		if err != nil {
			return errors.Join(domain.ErrFolderNotFound, err)
		}

		return domain.ErrFolderNotFound
	}

	return nil
}
