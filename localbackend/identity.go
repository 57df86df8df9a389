package localbackend

import (
	"context"
	"strings"
	"sync"
	"time"

	session "github.com/BustosAndrew/go-session"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 14

// SessionRestorer is implemented by the identity service this package
// returns. Callers that kept a session token from a previous run can
// type-assert the service handle and re-establish the identity without
// credentials.
type SessionRestorer interface {
	SessionToken() (string, bool)
	RestoreSession(ctx context.Context, token string) (session.Identity, error)
}

type identityService struct {
	users  repository.Repository[*UserRecord]
	tokens *tokenService
	logger session.Logger

	mu       sync.Mutex
	current  session.Identity
	token    string
	watchers map[int]func(session.Identity)
	seq      int
}

var (
	_ session.IdentityService = (*identityService)(nil)
	_ SessionRestorer         = (*identityService)(nil)
)

func newIdentityService(db *bun.DB, signingKey []byte, logger session.Logger) *identityService {
	repo := repository.NewRepository[*UserRecord](db, repository.ModelHandlers[*UserRecord]{
		NewRecord: func() *UserRecord { return &UserRecord{} },
		GetID: func(r *UserRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *UserRecord, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string { return "email" },
	})

	return &identityService{
		users:    repo,
		tokens:   newTokenService(signingKey, 24*time.Hour, "go-session/local"),
		logger:   logger,
		watchers: map[int]func(session.Identity){},
	}
}

type identity struct {
	id          string
	email       string
	displayName string
}

func (i identity) ID() string          { return i.id }
func (i identity) Email() string       { return i.email }
func (i identity) DisplayName() string { return i.displayName }

var _ session.Identity = identity{}

func identityFromRecord(rec *UserRecord) identity {
	return identity{
		id:          rec.ID.String(),
		email:       rec.Email,
		displayName: rec.DisplayName,
	}
}

func (s *identityService) SignUp(ctx context.Context, email, password string) (session.Identity, error) {
	email = normalizeEmail(email)

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByIdentifier(ctx, email); err == nil {
		return nil, session.ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for an existing account")
	}

	rec := &UserRecord{Email: email, PasswordHash: hash}
	if id, err := hashid.NewUUID(email); err == nil {
		rec.ID = id
	} else {
		rec.ID = uuid.New()
	}

	created, err := s.users.Create(ctx, rec)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	ident := identityFromRecord(created)
	s.setCurrent(ident)
	return ident, nil
}

func (s *identityService) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	rec, err := s.users.GetByIdentifier(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, session.ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return nil, session.ErrInvalidCredentials
	}

	ident := identityFromRecord(rec)
	s.setCurrent(ident)
	return ident, nil
}

func (s *identityService) SignOut(context.Context) error {
	s.setCurrent(nil)
	return nil
}

// OnChange delivers the current identity synchronously, then every change
func (s *identityService) OnChange(handler func(session.Identity)) session.Unsubscribe {
	if handler == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.seq
	s.seq++
	s.watchers[id] = handler
	current := s.current
	s.mu.Unlock()

	handler(current)

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// SessionToken returns the token minted for the current identity
func (s *identityService) SessionToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// RestoreSession re-establishes the identity carried by a previously minted
// session token.
func (s *identityService) RestoreSession(ctx context.Context, token string) (session.Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	rec, err := s.users.GetByIdentifier(ctx, claims.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.New("account behind session token no longer exists", goerrors.CategoryAuth)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	if rec.ID.String() != claims.Subject {
		return nil, goerrors.New("session token does not match the account", goerrors.CategoryAuth)
	}

	ident := identityFromRecord(rec)
	s.setCurrent(ident)
	return ident, nil
}

func (s *identityService) setCurrent(ident session.Identity) {
	token := ""
	if ident != nil {
		var err error
		if token, err = s.tokens.Mint(ident); err != nil {
			s.logger.Warn("failed to mint session token", "error", err)
			token = ""
		}
	}

	s.mu.Lock()
	s.current = ident
	s.token = token
	watchers := make([]func(session.Identity), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(ident)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", goerrors.New("password must not be empty", goerrors.CategoryValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return string(hash), nil
}
