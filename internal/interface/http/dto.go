package handlers

import (
	"time"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
)

// userResponse is the public shape of a user; the password hash is never serialized.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Age       int       `json:"age"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Friends   []string  `json:"friends"`
	Enemies   []string  `json:"enemies"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	res := userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Surname:   u.Surname,
		Age:       u.Age,
		Friends:   nonNil(u.Friends),
		Enemies:   nonNil(u.Enemies),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Avatar != nil {
		res.AvatarURL = u.Avatar.URL
	}
	return res
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

type loginResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}
