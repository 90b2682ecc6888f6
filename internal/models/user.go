package models

import (
	"encoding/json"
	"time"
)

// Roles derived from Account.IsAdmin
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Gender values accepted at registration
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// MinFavoriteGenres is the number of genres required at registration.
const MinFavoriteGenres = 3

// Account represents a registered user
type Account struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // bcrypt hash (never in JSON)
	Age            int       `json:"age"`
	Gender         Gender    `json:"gender"`
	FavoriteGenres []string  `json:"favoriteGenres"`
	Favorites      []string  `json:"favorites"` // internal movie references
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Role returns "admin" or "user"
func (a *Account) Role() string {
	if a.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// HasFavorite reports whether ref is already in the favorites list.
func (a *Account) HasFavorite(ref string) bool {
	for _, f := range a.Favorites {
		if f == ref {
			return true
		}
	}
	return false
}

// MarshalJSON adds the virtual id and role fields.
func (a Account) MarshalJSON() ([]byte, error) {
	type account Account
	favorites := a.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	a.Favorites = favorites
	return json.Marshal(struct {
		account
		VirtualID string `json:"id"`
		Role      string `json:"role"`
	}{
		account:   account(a),
		VirtualID: a.ID,
		Role:      a.Role(),
	})
}

// AccountPatch lists the fields an update may change. Nil means unchanged.
type AccountPatch struct {
	Username       *string
	Email          *string
	PasswordHash   *string
	Age            *int
	Gender         *Gender
	FavoriteGenres []string
	IsAdmin        *bool
}

// Summary is the short account shape returned with a token
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Summarize returns the account's id, username and email.
func (a *Account) Summarize() Summary {
	return Summary{ID: a.ID, Username: a.Username, Email: a.Email}
}

// LoginRequest represents login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents registration request payload
type RegisterRequest struct {
	Username       string   `json:"username" validate:"required,min=3"`
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=6"`
	Age            int      `json:"age" validate:"required,gte=13,lte=120"`
	Gender         string   `json:"gender" validate:"required,oneof=male female other"`
	FavoriteGenres []string `json:"favoriteGenres" validate:"required,min=3,dive,required"`
}

// UpdateAccountRequest is a partial update; omitted fields stay unchanged.
type UpdateAccountRequest struct {
	Username       *string  `json:"username,omitempty" validate:"omitempty,min=3"`
	Email          *string  `json:"email,omitempty" validate:"omitempty,email"`
	Password       *string  `json:"password,omitempty" validate:"omitempty,min=6"`
	Age            *int     `json:"age,omitempty" validate:"omitempty,gte=13,lte=120"`
	Gender         *string  `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	FavoriteGenres []string `json:"favoriteGenres,omitempty" validate:"omitempty,dive,required"`
	IsAdmin        *bool    `json:"isAdmin,omitempty"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Success bool    `json:"success"`
	Token   string  `json:"token"`
	User    Summary `json:"user"`
}
