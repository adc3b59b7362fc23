package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

// ErrPixelNotFound is returned when a pixel lookup finds no matching row.
var ErrPixelNotFound = pixel.ErrNotFound

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when a user is created with a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTokenNotFound is returned when a capability token does not exist or was already used.
	ErrTokenNotFound = errors.New("token not found")
)

// PixelStore is the durable pixel map. All ids must be canonical; malformed
// ids are rejected with pixel.ErrInvalidArgument before any query runs.
type PixelStore interface {
	// Get returns the pixel stored under id.
	Get(ctx context.Context, id string) (*pixel.Pixel, error)

	// List returns every stored pixel keyed by id.
	List(ctx context.Context) (map[string]pixel.Pixel, error)

	// Upsert creates or replaces a pixel's color and owner.
	Upsert(ctx context.Context, id, color string, ownerID *string) error

	// SetColor changes only the color of an existing pixel.
	SetColor(ctx context.Context, id, color string) error

	// Claim sets the owner of a pixel, creating it with defaultColor if absent.
	// An existing pixel keeps its color.
	Claim(ctx context.Context, id, ownerID, defaultColor string) error

	// ClearOwnerForUser unclaims every pixel owned by ownerID.
	ClearOwnerForUser(ctx context.Context, ownerID string) (int64, error)

	// Seed inserts every coordinate of a gridSize×gridSize canvas that is not stored yet.
	Seed(ctx context.Context, gridSize int, color string) (int64, error)

	// Count returns the number of stored pixels.
	Count(ctx context.Context) (int64, error)
}

// TokenPurpose scopes a capability token to one sensitive action.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

// User is a stored account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}

// CapabilityToken is a single-use, time-bounded secret. Only its hash is stored.
type CapabilityToken struct {
	Hash      string
	Purpose   TokenPurpose
	Subject   uuid.UUID
	ExpiresAt time.Time
}

// UserStore persists accounts and their capability tokens.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SetVerified(ctx context.Context, id uuid.UUID) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	SaveToken(ctx context.Context, tok CapabilityToken) error
	// ConsumeToken deletes and returns the token in one step, so a token can
	// be redeemed at most once. Expired tokens are still consumed.
	ConsumeToken(ctx context.Context, hash string, purpose TokenPurpose) (*CapabilityToken, error)
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
