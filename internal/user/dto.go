// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/balaoui/internal/money"
)

type UpdateUserRequest struct {
	Name      *string `json:"name,omitempty"       validate:"omitempty,min=1,max=100"`
	City      *string `json:"city,omitempty"       validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=2048"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserResponse struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	AvatarURL    string       `json:"avatar_url"`
	City         string       `json:"city"`
	Rating       float64      `json:"rating"`
	ReviewCount  int          `json:"review_count"`
	Role         string       `json:"role"`
	Balance      money.Amount `json:"balance"`
	IsPro        bool         `json:"is_pro"`
	ProExpiresAt *time.Time   `json:"pro_expires_at,omitempty"`
	IsBanned     bool         `json:"is_banned"`
	CreatedAt    time.Time    `json:"member_since"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PublicUserResponse is what other members see of a seller or buyer.
type PublicUserResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	City        string    `json:"city"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	IsPro       bool      `json:"is_pro"`
	CreatedAt   time.Time `json:"member_since"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Banned   *bool  `json:"banned"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		City:         u.City,
		Rating:       u.Rating,
		ReviewCount:  u.ReviewCount,
		Role:         u.Role,
		Balance:      u.Balance,
		IsPro:        u.IsPro,
		ProExpiresAt: u.ProExpiresAt,
		IsBanned:     u.IsBanned,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func ToPublicUserResponse(u *User) PublicUserResponse {
	return PublicUserResponse{
		ID:          u.ID,
		Name:        u.Name,
		AvatarURL:   u.AvatarURL,
		City:        u.City,
		Rating:      u.Rating,
		ReviewCount: u.ReviewCount,
		IsPro:       u.IsPro,
		CreatedAt:   u.CreatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
