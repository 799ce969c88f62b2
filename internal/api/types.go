package api

import "time"

// Empty is used by methods without a request or response payload.
type Empty struct{}

type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Bio      string `json:"bio,omitempty"`
	Image    string `json:"image,omitempty"`
}

type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

// PublicProfile is another user's profile; it never carries the email.
type PublicProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bio      string `json:"bio,omitempty"`
	Image    string `json:"image,omitempty"`
}

// GetProfileRequest names a user by username or id.
type GetProfileRequest struct {
	User string `json:"user"`
}

type PublicProfileResponse struct {
	Profile PublicProfile `json:"profile"`
}

type ListProfilesRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type ListProfilesResponse struct {
	Profiles []PublicProfile `json:"profiles"`
	Total    int             `json:"total"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Profile   Profile   `json:"profile"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateProfileRequest changes only the fields that are set.
type UpdateProfileRequest struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Image    *string `json:"image,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"content_type"`
}

type AvatarUploadResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Article struct {
	ID             int64     `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Author         UserRef   `json:"author"`
	FavoritedBy    []UserRef `json:"favorited_by"`
	FavoritesCount int       `json:"favorites_count"`
	TagList        []string  `json:"tag_list"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ArticleResponse struct {
	Article Article `json:"article"`
}

type CreateArticleRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// Slug is derived from Title when empty.
	Slug    string   `json:"slug,omitempty"`
	TagList []string `json:"tag_list,omitempty"`
}

type GetArticleRequest struct {
	Slug string `json:"slug"`
}

type ListArticlesRequest struct {
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
	Author    string `json:"author,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Favorited string `json:"favorited,omitempty"`
	OrderBy   string `json:"order_by,omitempty"`
	Order     string `json:"order,omitempty"`
}

type ListArticlesResponse struct {
	Articles []Article `json:"articles"`
	Total    int       `json:"total"`
}

type UpdateArticleRequest struct {
	Slug    string  `json:"slug"`
	Title   *string `json:"title,omitempty"`
	Body    *string `json:"body,omitempty"`
	NewSlug *string `json:"new_slug,omitempty"`
}

type DeleteArticleRequest struct {
	Slug string `json:"slug"`
}

// FavoriteRequest toggles the caller's favorite on an article.
type FavoriteRequest struct {
	ArticleID int64 `json:"article_id"`
}

type TagRequest struct {
	ArticleID int64  `json:"article_id"`
	Tag       string `json:"tag"`
}

type ListTagsResponse struct {
	Tags []string `json:"tags"`
}
