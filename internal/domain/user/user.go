package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired       = errors.New("user: id is required")
	ErrEmailRequired    = errors.New("user: email is required")
	ErrHashMissing      = errors.New("user: password hash is required")
	ErrNameRequired     = errors.New("user: name is required")
	ErrInvalidRole      = errors.New("user: invalid role")
	ErrEmailAlreadyUsed = errors.New("user: email already used")
	ErrNotFound         = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
)

type User struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
}

func New(params CreateParams) (*User, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrHashMissing
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	roles, err := normalizeRoles(params.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []Role{RoleGuest}
	}
	now := params.CreatedAt.UTC()
	return &User{
		ID:           params.ID,
		Email:        email,
		Name:         name,
		PasswordHash: params.PasswordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) HasRole(role Role) bool {
	for _, current := range u.Roles {
		if current == role {
			return true
		}
	}
	return false
}

// GrantRole is a no-op when the user already holds the role. Used when a
// guest lists their first property and becomes a host.
func (u *User) GrantRole(role Role, now time.Time) error {
	if role != RoleGuest && role != RoleHost {
		return ErrInvalidRole
	}
	if u.HasRole(role) {
		return nil
	}
	u.Roles = append(u.Roles, role)
	u.UpdatedAt = now.UTC()
	return nil
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrHashMissing
	}
	u.PasswordHash = hash
	u.UpdatedAt = now.UTC()
	return nil
}

func normalizeRoles(roles []Role) ([]Role, error) {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, role := range roles {
		role = Role(strings.ToLower(strings.TrimSpace(string(role))))
		if role != RoleGuest && role != RoleHost {
			return nil, ErrInvalidRole
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out, nil
}
