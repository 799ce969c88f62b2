package models

import "time"

// Article is an article together with its expanded relations: the author,
// the set of users who favorited it and the set of tags attached to it.
type Article struct {
	ID          int64
	Slug        string
	Title       string
	Body        string
	Author      UserRef
	FavoritedBy []UserRef
	Tags        []Tag
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FavoritedByUser reports whether userID is in the article's favorite set.
func (a *Article) FavoritedByUser(userID string) bool {
	for _, u := range a.FavoritedBy {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// HasTag reports whether a tag with the given name is attached.
func (a *Article) HasTag(name string) bool {
	for _, t := range a.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// TagNames returns the attached tag names in their stored order.
func (a *Article) TagNames() []string {
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}

// ArticlePatch carries the optional fields of an article update.
// Nil fields are left untouched.
type ArticlePatch struct {
	Title *string
	Body  *string
	Slug  *string
}

// Tag is a unique, lazily created label.
type Tag struct {
	ID   int64
	Name string
}
