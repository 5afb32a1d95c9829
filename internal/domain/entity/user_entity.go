package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// Password holds a bcrypt hash. Friends and Enemies are ordered sets of user IDs,
// directed from this user towards others.
//
// Version is bumped on every relation write and is used for conditional updates.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	Surname   string
	Age       int
	Avatar    *Avatar
	Friends   []string
	Enemies   []string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Avatar is the stored image metadata for a user's profile picture.
type Avatar struct {
	URL         string `json:"url"`
	ObjectPath  string `json:"object_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Filename    string `json:"filename"`
}

// Clone returns a copy whose relation slices do not alias u's.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Friends = append([]string(nil), u.Friends...)
	c.Enemies = append([]string(nil), u.Enemies...)
	if u.Avatar != nil {
		a := *u.Avatar
		c.Avatar = &a
	}
	return &c
}
