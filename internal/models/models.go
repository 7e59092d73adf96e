package models

import (
	"slices"

	"github.com/samber/lo"
)

// Defaults shown for a profile that never filled the optional fields.
const (
	DefaultBio      = "Любитель технологий и новостей"
	DefaultJoinDate = "15 дек 2024"
)

// SystemUserID marks messages authored by the portal itself.
const SystemUserID = "system"

// User is the single active session of a browser profile.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio,omitempty"`
	JoinDate  string `json:"joinDate,omitempty"`
	SavedNews []int  `json:"savedNews,omitempty"`
}

type ChatMessage struct {
	ID        int64  `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type Comment struct {
	ID     int64  `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
	Date   string `json:"date"`
	Likes  int    `json:"likes"`
}

type Article struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Excerpt  string `json:"excerpt"`
	Date     string `json:"date"`
	Author   string `json:"author"`
	Views    int    `json:"views"`
	Comments int    `json:"comments"`
	Featured bool   `json:"featured,omitempty"`
	Link     string `json:"link,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Email is not editable.
type ProfileUpdate struct {
	Name string `json:"name" validate:"required,max=100"`
	Bio  string `json:"bio" validate:"max=500"`
}

// WithDefaults fills the optional fields the way the profile page displays them.
func (u User) WithDefaults() User {
	if u.Bio == "" {
		u.Bio = DefaultBio
	}
	if u.JoinDate == "" {
		u.JoinDate = DefaultJoinDate
	}
	if u.SavedNews == nil {
		u.SavedNews = []int{}
	}
	return u
}

// HasSaved reports whether articleID is in the saved set.
func (u User) HasSaved(articleID int) bool {
	return lo.Contains(u.SavedNews, articleID)
}

// ToggleSaved adds articleID when absent and removes it when present.
// The receiver is not modified.
func (u User) ToggleSaved(articleID int) User {
	if u.HasSaved(articleID) {
		return u.RemoveSaved(articleID)
	}
	u.SavedNews = append(slices.Clone(u.SavedNews), articleID)
	return u
}

// RemoveSaved drops articleID from the saved set; absent ids are a no-op.
func (u User) RemoveSaved(articleID int) User {
	saved := lo.Without(u.SavedNews, articleID)
	if saved == nil {
		saved = []int{}
	}
	u.SavedNews = saved
	return u
}

// UpdateProfile overwrites name and bio. ID and email never change here.
func (u User) UpdateProfile(upd ProfileUpdate) User {
	u.Name = upd.Name
	u.Bio = upd.Bio
	return u
}
