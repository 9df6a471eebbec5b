package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the remote catalog's product representation. Read-only to this
// system; ids are stable across calls.
type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Category    Category        `json:"category"`
	CreationAt  time.Time       `json:"creationAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// NewUser is the payload for user creation.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// AuthTokens is the credential pair issued by the catalog's auth endpoint.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
