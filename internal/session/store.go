package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("session not found")

// LoginStateTTL bounds how long an authorization round trip may take.
const LoginStateTTL = 10 * time.Minute

type Session struct {
	ID        string
	Subject   string
	Email     string
	Name      string
	Token     *oauth2.Token
	Synced    bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LoginState is the pending half of an authorization-code exchange.
type LoginState struct {
	State    string
	Verifier string
	ReturnTo string
}

type Store struct {
	db     *sql.DB
	sealer *Sealer
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (or creates) the session database at path and applies
// migrations. ":memory:" gives a private in-process database.
func Open(path string, sealer *Sealer, ttl time.Duration, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" coherent and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, sealer: sealer, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create stores a new session for the given identity and token.
func (s *Store) Create(ctx context.Context, subject, email, name string, tok *oauth2.Token) (Session, error) {
	if subject == "" {
		return Session{}, errors.New("session subject is empty")
	}
	sealed, err := s.sealer.Seal(tok)
	if err != nil {
		return Session{}, err
	}

	now := s.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Subject:   subject,
		Email:     email,
		Name:      name,
		Token:     tok,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, subject, email, name, token_sealed, synced, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		sess.ID, sess.Subject, sess.Email, sess.Name, sealed, now.Unix(), sess.ExpiresAt.Unix())
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}

	slog.DebugContext(ctx, "Session created", "subject", subject, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Get returns a live session. Expired rows are reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	var (
		sess      Session
		sealed    []byte
		synced    int64
		createdAt int64
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, subject, email, name, token_sealed, synced, created_at, expires_at
		 FROM sessions WHERE id = ? AND expires_at > ?`,
		id, s.now().Unix()).
		Scan(&sess.ID, &sess.Subject, &sess.Email, &sess.Name, &sealed, &synced, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("query session: %w", err)
	}

	tok, err := s.sealer.Open(sealed)
	if err != nil {
		// Sealed with a different identity, e.g. after a key rotation.
		return Session{}, ErrNotFound
	}

	sess.Token = tok
	sess.Synced = synced != 0
	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	sess.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return sess, nil
}

func (s *Store) UpdateToken(ctx context.Context, id string, tok *oauth2.Token) error {
	sealed, err := s.sealer.Seal(tok)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET token_sealed = ? WHERE id = ?`, sealed, id)
	if err != nil {
		return fmt.Errorf("update session token: %w", err)
	}
	return requireRow(res)
}

// MarkSynced records that the user directory sync succeeded for the session.
func (s *Store) MarkSynced(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark session synced: %w", err)
	}
	return requireRow(res)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes expired sessions and login states.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now().Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM login_states WHERE expires_at <= ?`, now); err != nil {
		return n, fmt.Errorf("purge login states: %w", err)
	}
	return n, nil
}

func (s *Store) SaveLoginState(ctx context.Context, ls LoginState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO login_states (state, verifier, return_to, expires_at) VALUES (?, ?, ?, ?)`,
		ls.State, ls.Verifier, ls.ReturnTo, s.now().Add(LoginStateTTL).Unix())
	if err != nil {
		return fmt.Errorf("insert login state: %w", err)
	}
	return nil
}

// ConsumeLoginState returns and deletes a pending login state. Each state
// can be consumed once.
func (s *Store) ConsumeLoginState(ctx context.Context, state string) (LoginState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LoginState{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ls := LoginState{State: state}
	err = tx.QueryRowContext(ctx,
		`SELECT verifier, return_to FROM login_states WHERE state = ? AND expires_at > ?`,
		state, s.now().Unix()).Scan(&ls.Verifier, &ls.ReturnTo)
	if errors.Is(err, sql.ErrNoRows) {
		return LoginState{}, ErrNotFound
	}
	if err != nil {
		return LoginState{}, fmt.Errorf("query login state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM login_states WHERE state = ?`, state); err != nil {
		return LoginState{}, fmt.Errorf("delete login state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return LoginState{}, fmt.Errorf("commit: %w", err)
	}
	return ls, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TokenSource wraps base so refreshed tokens are written back to the
// session row. The session's current token is reused until it expires.
func (s *Store) TokenSource(sess Session, base oauth2.TokenSource) oauth2.TokenSource {
	last := ""
	if sess.Token != nil {
		last = sess.Token.AccessToken
	}
	return oauth2.ReuseTokenSource(sess.Token, &persistingSource{
		store: s,
		id:    sess.ID,
		base:  base,
		last:  last,
	})
}

type persistingSource struct {
	store *Store
	id    string
	base  oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := tok.AccessToken != p.last
	p.last = tok.AccessToken
	p.mu.Unlock()

	if changed {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.store.UpdateToken(ctx, p.id, tok); err != nil {
			slog.Warn("Failed to persist refreshed token", "error", err)
		}
	}
	return tok, nil
}
