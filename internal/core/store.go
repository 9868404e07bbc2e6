package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	db "github.com/JonMunkholm/contacts/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrDuplicateEmail is returned by Store.Create when the email is already taken.
// The existence pre-check can race with a concurrent import; this is the backstop.
var ErrDuplicateEmail = errors.New("duplicate key: email already taken")

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Store is the persistent contact store consumed by the import pipeline.
// Create returns nil on success; any error is the failure reason.
type Store interface {
	EmailChecker
	Create(ctx context.Context, c Contact) error
	Ping(ctx context.Context) error
}

// PostgresStore implements Store on top of the contacts table.
type PostgresStore struct {
	dbtx db.DBTX
	q    *db.Queries
}

// NewPostgresStore creates a store using dbtx, which may be a pool or a transaction.
func NewPostgresStore(dbtx db.DBTX) *PostgresStore {
	return &PostgresStore{dbtx: dbtx, q: db.New(dbtx)}
}

// ExistsByEmail reports whether a contact with exactly this email exists.
func (s *PostgresStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := s.q.ContactExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Create inserts c. Unique violations on email are reported as ErrDuplicateEmail.
func (s *PostgresStore) Create(ctx context.Context, c Contact) error {
	err := s.q.InsertContact(ctx, db.InsertContactParams{
		ID:        pgtype.UUID{Bytes: c.ID, Valid: true},
		ImportID:  pgtype.UUID{Bytes: c.ImportID, Valid: c.ImportID != uuid.Nil},
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     toPgText(c.Phone),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.dbtx.Exec(ctx, "SELECT 1")
	return err
}

func toPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// MemoryStore is an in-process Store used for dry runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	contacts map[string]Contact
	order    []string
}

// NewMemoryStore creates an empty MemoryStore, optionally seeded with contacts.
// It panics if two seed contacts share an email.
func NewMemoryStore(seed ...Contact) *MemoryStore {
	s := &MemoryStore{contacts: make(map[string]Contact)}
	for _, c := range seed {
		if err := s.Create(context.Background(), c); err != nil {
			panic(fmt.Sprintf("memory store seed %q: %v", c.Email, err))
		}
	}
	return s
}

// ExistsByEmail reports whether email is stored.
func (s *MemoryStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.contacts[email]
	return ok, nil
}

// Create stores c, enforcing email uniqueness like the database constraint does.
func (s *MemoryStore) Create(ctx context.Context, c Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[c.Email]; ok {
		return ErrDuplicateEmail
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.contacts[c.Email] = c
	s.order = append(s.order, c.Email)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// All returns stored contacts in insertion order.
func (s *MemoryStore) All() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Contact, 0, len(s.order))
	for _, email := range s.order {
		out = append(out, s.contacts[email])
	}
	return out
}

// Len returns the number of stored contacts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contacts)
}
