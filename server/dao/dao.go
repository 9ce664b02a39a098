// Package dao provides data access objects for use in the constraint server.
package dao

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories. Only account and session bookkeeping for
// the HTTP layer lives here; the in-progress parse of a session (the
// *earley.Parser itself) is never persisted and never leaves process memory.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	GrammarCache() GrammarCacheRepository
	Close() error
}

type UserRepository interface {

	// Create creates a new User. All attributes except for auto-generated
	// fields are taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)

	// Close closes the connection.
	Close() error
}

type Role int

const (
	Guest Role = iota
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'normal', or 'admin'")
	}
}

// User is an account authorized to open constraint sessions against the
// server. Password is kept as the field name for the bcrypt hash (matching
// the rest of the auth stack) but what it stores is the hash of an issued API
// key, not a login password.
type User struct {
	ID             uuid.UUID     // PK, NOT NULL
	Username       string        // UNIQUE, NOT NULL
	Password       string        // NOT NULL; base64 bcrypt hash of the API key
	Email          *mail.Address // NOT NULL
	Role           Role          // NOT NULL
	Created        time.Time     // NOT NULL
	Modified       time.Time
	LastLogoutTime time.Time // NOT NULL DEFAULT NOW(); invalidates outstanding JWTs
	LastLoginTime  time.Time // NOT NULL
}

type SessionRepository interface {
	Create(ctx context.Context, sesh Session) (Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)
	GetAll(ctx context.Context) ([]Session, error)
	Update(ctx context.Context, id uuid.UUID, sesh Session) (Session, error)
	Delete(ctx context.Context, id uuid.UUID) (Session, error)
	Close() error
}

// Session is the durable bookkeeping record of one constrained-generation
// session: which grammar it was opened against, who owns it, and a snapshot
// of progress for listing/auditing. The live parse state (rows, items,
// captures) is reconstructed from GrammarName/GrammarVersion plus the bytes
// already fed, and is never written here.
type Session struct {
	ID             uuid.UUID // PK, NOT NULL
	UserID         uuid.UUID // FK (Many-to-One User.ID), NOT NULL
	GrammarName    string    // NOT NULL
	GrammarVersion string    // NOT NULL
	Created        time.Time // NOT NULL
	BytesFed       int
	Accepting      bool
	Closed         bool
}

type GrammarCacheRepository interface {
	Create(ctx context.Context, g GrammarCache) (GrammarCache, error)
	GetByNameVersion(ctx context.Context, name, version string) (GrammarCache, error)
	GetAllByName(ctx context.Context, name string) ([]GrammarCache, error)
	GetAll(ctx context.Context) ([]GrammarCache, error)
	Delete(ctx context.Context, name, version string) (GrammarCache, error)
	Close() error
}

// GrammarCache holds one REZI-encoded compiled-grammar descriptor (see
// server/grammars.GrammarDescriptor), so a session can be opened against a
// previously-registered grammar without resending its rule and lexeme
// tables on every request. Compiling a textual grammar source into a
// descriptor is out of scope here exactly as it is for internal/earley/
// grammar and internal/earley/lexer: only the result of building one
// programmatically is ever cached.
type GrammarCache struct {
	Name    string // PK (composite w/ Version), NOT NULL
	Version string // PK (composite w/ Name), NOT NULL
	Blob    []byte // NOT NULL, REZI-encoded grammars.GrammarDescriptor
	Created time.Time
}
