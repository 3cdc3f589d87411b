package session

import (
	"context"

	"github.com/xlan/socialdesk/internal/domain"
	context_ "github.com/xlan/socialdesk/internal/infra/context"
	"github.com/xlan/socialdesk/internal/util/encoding"
	"github.com/xlan/socialdesk/internal/util/uuid"
)

// Session holds the account produced by the most recent successful
// authentication. It is an explicit value passed into every call that needs
// it; nothing reads ambient global state.
type Session struct {
	// ID is a short random identifier for log correlation.
	ID string

	// Account is the authenticated account. Nil when nobody is logged in.
	Account *domain.Account
}

// New creates a session for the given authenticated account.
func New(acct *domain.Account) (*Session, error) {
	id, err := uuid.New(uuid.UUIDv7)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:      encoding.EncodeCrockfordB32LC(id.Bytes()),
		Account: acct,
	}, nil
}

// Context enriches the given context with the session id and username so log
// records emitted below carry them.
func (s *Session) Context(ctx context.Context) context.Context {
	ctx = context_.WithSessionID(ctx, s.ID)

	if s.Account != nil {
		ctx = context_.WithUsername(ctx, s.Account.Username)
	}

	return ctx
}

// RequireVIP gates VIP-only features. It returns ErrVIPRequired when no
// account is logged in or the account is not VIP. Denial is an expected
// outcome; the caller must skip the gated feature entirely.
func (s *Session) RequireVIP() error {
	if s == nil || s.Account == nil || !s.Account.IsVIP {
		return domain.ErrVIPRequired
	}

	return nil
}
