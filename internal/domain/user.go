package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Role string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleStaff || r == RoleAdmin
}

// Staff reports whether the role carries staff-level permissions.
func (r Role) Staff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Identity is the explicit identity context passed into every lifecycle
// call. It is acquired at session start from a verified token, never read
// from an ambient global.
type Identity struct {
	ID          string
	DisplayName string
	Email       string
	Role        Role
}

func (id Identity) Authenticated() bool {
	return id.ID != ""
}

type UserProfile struct {
	bun.BaseModel `bun:"table:users"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	DisplayName  string    `bun:"display_name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         Role      `bun:"role,notnull,default:'client'"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (u *UserProfile) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if u.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			u.ID = id
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		if u.UpdatedAt.IsZero() {
			u.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		u.UpdatedAt = now
	}
	return nil
}

func (u UserProfile) Identity() Identity {
	return Identity{
		ID:          u.ID.String(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
	}
}

// DeviceToken is a push-notification registration for one device.
type DeviceToken struct {
	bun.BaseModel `bun:"table:device_tokens"`

	Token     string    `bun:"token,pk"`
	OwnerID   string    `bun:"owner_id,notnull"`
	Platform  string    `bun:"platform"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
