package contactbook

import "context"

// Role is the closed set of capability tags a user can hold. The wire values
// ("User", "ADMIN") are fixed; unknown strings never grant access.
type Role string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "User"
	// RoleAdmin may list contacts across all owners.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// CanListAll reports whether r grants the cross-owner listing capability.
func (r Role) CanListAll() bool {
	return r == RoleAdmin
}

// ParseRole maps a stored role string to a [Role]. Unknown values degrade to
// RoleUser so that a corrupted or hand-edited role column can only ever
// narrow access, never widen it.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// User is a credential-store record. PasswordHash is a PHC-encoded Argon2id
// digest and is blanked on every value the engine returns to callers.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	// ResetToken holds the single outstanding password-reset token, empty when
	// none is live. Cleared on use, password change, and successful reset.
	ResetToken string
}

// Redacted returns a copy of u safe to hand to callers.
func (u User) Redacted() User {
	u.PasswordHash = ""
	u.ResetToken = ""
	return u
}

// Contact is an address-book entry. OwnerID is stamped at creation and never
// mutated afterwards.
type Contact struct {
	ID          string
	OwnerID     string
	FirstName   string
	LastName    string
	Address     string
	Email       string
	PhoneNumber string
}

// RegisterInput is the input for [Engine.Register].
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// ContactInput carries the mutable contact fields for [Engine.CreateContact]
// and [Engine.UpdateContact]. Identity and ownership are never taken from it.
type ContactInput struct {
	FirstName   string
	LastName    string
	Address     string
	Email       string
	PhoneNumber string
}

func (in ContactInput) apply(c *Contact) {
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Address = in.Address
	c.Email = in.Email
	c.PhoneNumber = in.PhoneNumber
}

// UserStore is the credential persistence contract the engine consumes.
// Implementations must return [ErrNotFound] for missing records, map duplicate
// emails on Create to [ErrDuplicateIdentity], and wrap infrastructure failures
// in [ErrStorage]. Conflicting writes to the same user must serialize so the
// last committed write wins.
type UserStore interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, user User) error
	Update(ctx context.Context, user User) error
}

// ContactStore is the contact persistence contract. Same error conventions as
// [UserStore].
type ContactStore interface {
	FindByID(ctx context.Context, id string) (Contact, error)
	FindByOwner(ctx context.Context, ownerID string) ([]Contact, error)
	FindAll(ctx context.Context) ([]Contact, error)
	Create(ctx context.Context, contact Contact) error
	Update(ctx context.Context, contact Contact) error
	Delete(ctx context.Context, id string) error
}

// Notifier delivers out-of-band messages (registration greetings, reset
// tokens). Calls are fire-and-forget: the engine logs failures and never lets
// them affect the primary operation.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// EventPublisher records engine occurrences for downstream systems.
// Fire-and-forget, same as [Notifier].
type EventPublisher interface {
	Publish(ctx context.Context, event string) error
}
