package domain

import "time"

// Account is a user account as exposed to callers. It deliberately has no
// password field: the hash never leaves the store layer.
type Account struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FavoriteTitleIDs []string  `json:"favorite_title_ids"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AccountInput registers a new account.
type AccountInput struct {
	Username string `json:"username" validate:"required,min=3,max=30,nowhitespace"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

// AccountPatch is a partial update. A provided password is hashed again.
type AccountPatch struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30,nowhitespace"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,maxbytes=72"`
}

// Credentials is the body of a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FavoriteRequest is the body of an add-favorite request.
type FavoriteRequest struct {
	TitleID string `json:"title_id"`
}

// FavoriteStatus answers a membership check.
type FavoriteStatus struct {
	IsFavorite bool `json:"is_favorite"`
}
