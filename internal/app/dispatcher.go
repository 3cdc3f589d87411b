package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xlan/socialdesk/internal/domain"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/session"
	"github.com/xlan/socialdesk/internal/svc/accountsvc"
	"github.com/xlan/socialdesk/internal/svc/exportsvc"
	"github.com/xlan/socialdesk/internal/svc/postsvc"
)

// ErrUnknownOperation is returned when no handler is registered for an
// operation name.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrLoginRequired is returned when an operation needs an authenticated
// session and nobody is logged in.
var ErrLoginRequired = errors.New("login required")

// Args carries the named string inputs of one operation. All parsing from
// text to typed values happens in the handlers, before the core is reached.
type Args map[string]string

// HandlerFunc executes one logical operation and returns a user-facing
// result message.
type HandlerFunc func(ctx context.Context, args Args) (string, error)

// Dispatcher routes logical operation names to handlers. It owns the active
// session: login installs it, logout drops it, and every handler receives a
// context enriched with it. The table is independent of any widget toolkit;
// any front end that can produce an operation name plus named arguments can
// drive it.
type Dispatcher struct {
	accounts *accountsvc.AccountService
	posts    *postsvc.PostService
	export   *exportsvc.ExportService
	log      logging.Logger

	sess     *session.Session
	handlers map[string]HandlerFunc
}

// NewDispatcher creates a Dispatcher over the given services and registers
// the operation table.
func NewDispatcher(
	accounts *accountsvc.AccountService,
	posts *postsvc.PostService,
	export *exportsvc.ExportService,
) *Dispatcher {
	d := &Dispatcher{
		accounts: accounts,
		posts:    posts,
		export:   export,
		log:      logging.GetLogger("app.dispatcher"),
	}

	d.handlers = map[string]HandlerFunc{
		"register":            d.handleRegister,
		"login":               d.handleLogin,
		"logout":              d.handleLogout,
		"upgrade-vip":         d.handleUpgradeVIP,
		"edit-profile":        d.handleEditProfile,
		"add-post":            d.handleAddPost,
		"get-post":            d.handleGetPost,
		"remove-post":         d.handleRemovePost,
		"top-posts":           d.handleTopPosts,
		"my-top-posts":        d.handleMyTopPosts,
		"export-post":         d.handleExportPost,
		"import-posts":        d.handleImportPosts,
		"shares-distribution": d.handleSharesDistribution,
	}

	return d
}

// Operations returns the sorted names the dispatcher responds to.
func (d *Dispatcher) Operations() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Session returns the active session, or nil when nobody is logged in.
func (d *Dispatcher) Session() *session.Session {
	return d.sess
}

// Dispatch executes the named operation. Expected failures (validation,
// not-found, conflict, authorization denial) come back as classified errors
// for the front end to render; they are never fatal.
func (d *Dispatcher) Dispatch(ctx context.Context, op string, args Args) (string, error) {
	handler, ok := d.handlers[op]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}

	if d.sess != nil {
		ctx = d.sess.Context(ctx)
	}

	d.log.DebugContext(ctx, "dispatching", "op", op)

	return handler(ctx, args)
}

func (d *Dispatcher) requireSession() (*session.Session, error) {
	if d.sess == nil || d.sess.Account == nil {
		return nil, ErrLoginRequired
	}

	return d.sess, nil
}

func (d *Dispatcher) handleRegister(ctx context.Context, args Args) (string, error) {
	acct, err := d.accounts.Register(ctx,
		args["username"], args["password"], args["firstname"], args["lastname"])
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Registered %s (account %d). Please log in.", acct.Username, acct.ID), nil
}

func (d *Dispatcher) handleLogin(ctx context.Context, args Args) (string, error) {
	acct, err := d.accounts.Authenticate(ctx, args["username"], args["password"])
	if err != nil {
		return "", err
	}

	sess, err := session.New(acct)
	if err != nil {
		return "", fmt.Errorf("new session: %w", err)
	}

	d.sess = sess

	if acct.IsVIP {
		return fmt.Sprintf("Welcome back, %s (VIP).", acct.FirstName), nil
	}

	return fmt.Sprintf("Welcome back, %s.", acct.FirstName), nil
}

func (d *Dispatcher) handleLogout(ctx context.Context, _ Args) (string, error) {
	if _, err := d.requireSession(); err != nil {
		return "", err
	}

	d.sess = nil

	return "Logged out.", nil
}

func (d *Dispatcher) handleUpgradeVIP(ctx context.Context, _ Args) (string, error) {
	sess, err := d.requireSession()
	if err != nil {
		return "", err
	}

	if err := d.accounts.UpgradeVIP(ctx, sess.Account.Username); err != nil {
		return "", err
	}

	// The in-session account keeps its old flag; a fresh login picks up the
	// VIP features, matching the "log out and log in again" flow.
	return "Upgrade successful. Log out and log in again to access VIP features.", nil
}

func (d *Dispatcher) handleEditProfile(ctx context.Context, args Args) (string, error) {
	sess, err := d.requireSession()
	if err != nil {
		return "", err
	}

	acct, err := d.accounts.EditProfile(ctx,
		sess.Account.Username,
		args["username"], args["password"], args["firstname"], args["lastname"])
	if err != nil {
		return "", err
	}

	sess.Account = acct

	return fmt.Sprintf("Profile updated for %s.", acct.Username), nil
}

func (d *Dispatcher) handleAddPost(ctx context.Context, args Args) (string, error) {
	sess, err := d.requireSession()
	if err != nil {
		return "", err
	}

	likes, err := parseCounter(args["likes"], "likes")
	if err != nil {
		return "", err
	}

	shares, err := parseCounter(args["shares"], "shares")
	if err != nil {
		return "", err
	}

	p, err := d.posts.AddPost(ctx,
		sess.Account.ID, args["content"], args["author"], likes, shares, args["datetime"])
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Post %d added.", p.ID), nil
}

func (d *Dispatcher) handleGetPost(ctx context.Context, args Args) (string, error) {
	if _, err := d.requireSession(); err != nil {
		return "", err
	}

	postID, err := parseID(args["postid"])
	if err != nil {
		return "", err
	}

	p, err := d.posts.GetPost(ctx, postID)
	if err != nil {
		return "", err
	}

	return formatPost(*p), nil
}

func (d *Dispatcher) handleRemovePost(ctx context.Context, args Args) (string, error) {
	if _, err := d.requireSession(); err != nil {
		return "", err
	}

	postID, err := parseID(args["postid"])
	if err != nil {
		return "", err
	}

	if err := d.posts.RemovePost(ctx, postID); err != nil {
		return "", err
	}

	return fmt.Sprintf("Post %d removed.", postID), nil
}

func (d *Dispatcher) handleTopPosts(ctx context.Context, args Args) (string, error) {
	sess, err := d.requireSession()
	if err != nil {
		return "", err
	}

	// Ranked retrieval across all accounts is a VIP feature.
	if err := sess.RequireVIP(); err != nil {
		return "", err
	}

	n, err := parseID(args["n"])
	if err != nil {
		return "", err
	}

	posts, err := d.posts.TopPosts(ctx, int(n))
	if err != nil {
		return "", err
	}

	return formatPosts(posts), nil
}

func (d *Dispatcher) handleMyTopPosts(ctx context.Context, args Args) (string, error) {
	sess, err := d.requireSession()
	if err != nil {
		return "", err
	}

	n, err := parseID(args["n"])
	if err != nil {
		return "", err
	}

	posts, err := d.posts.TopPostsByOwner(ctx, int(n), sess.Account.ID)
	if err != nil {
		return "", err
	}

	return formatPosts(posts), nil
}

func (d *Dispatcher) handleExportPost(ctx context.Context, args Args) (string, error) {
	if _, err := d.requireSession(); err != nil {
		return "", err
	}

	postID, err := parseID(args["postid"])
	if err != nil {
		return "", err
	}

	if err := d.export.ExportPost(ctx, postID, args["name"], args["folder"]); err != nil {
		return "", err
	}

	return fmt.Sprintf("Post %d exported to %s.csv.", postID, args["name"]), nil
}

func (d *Dispatcher) handleImportPosts(ctx context.Context, args Args) (string, error) {
	sess, err := d.requireSession()
	if err != nil {
		return "", err
	}

	report, err := d.export.ImportPosts(ctx, sess, args["name"], args["folder"])
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Imported %d posts, skipped %d lines.", report.Imported, report.Skipped), nil
}

func (d *Dispatcher) handleSharesDistribution(ctx context.Context, _ Args) (string, error) {
	sess, err := d.requireSession()
	if err != nil {
		return "", err
	}

	if err := sess.RequireVIP(); err != nil {
		return "", err
	}

	buckets, err := d.posts.SharesDistribution(ctx)
	if err != nil {
		return "", err
	}

	if len(buckets) == 0 {
		return "No posts yet.", nil
	}

	var b strings.Builder
	for _, bucket := range buckets {
		fmt.Fprintf(&b, "%d-%d: %d\n", bucket.Low, bucket.Low+99, bucket.Count)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// parseID converts a text input into a positive-capable integer, yielding
// ErrValidation on non-integer text. No store access happens on failure.
func parseID(text string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrValidation, text)
	}

	return value, nil
}

// parseCounter is parseID plus a non-negative check, for likes and shares.
func parseCounter(text, name string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}

	if value < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", domain.ErrValidation, name)
	}

	return value, nil
}

func formatPost(p domain.Post) string {
	return fmt.Sprintf("Post %d by %s: %q (%d likes, %d shares, %s)",
		p.ID, p.Author, p.Content, p.Likes, p.Shares, p.Timestamp)
}

func formatPosts(posts []domain.Post) string {
	if len(posts) == 0 {
		return "No posts found."
	}

	lines := make([]string, 0, len(posts))
	for i, p := range posts {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, formatPost(p)))
	}

	return strings.Join(lines, "\n")
}
