package models

import "time"

// User mirrors a row in the users table. The password hash is excluded
// from every JSON response.
type User struct {
	UserID    int        `json:"user_id"`
	Name      string     `json:"name"`
	Username  string     `json:"username"`
	Password  string     `json:"-"`
	Status    bool       `json:"status"`
	CreatedBy *int       `json:"createdBy"`
	UpdatedBy *int       `json:"updatedBy"`
	DeletedBy *int       `json:"DeletedBy"`
	DeletedAt *time.Time `json:"DeletedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// UserSummary is the shape joined onto orders during enrichment.
type UserSummary struct {
	UserID   int    `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Status   bool   `json:"status"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		UserID:   u.UserID,
		Name:     u.Name,
		Username: u.Username,
		Status:   u.Status,
	}
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Status   *bool  `json:"status"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Status   *bool   `json:"status"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
