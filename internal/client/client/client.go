package client

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/api"
)

// Client is the Conduit API as seen by the CLI.
type Client interface {
	Close() error
	SetToken(token string)
	Ping(ctx context.Context) error

	Register(ctx context.Context, email, username string, password []byte) (*api.Profile, error)
	Login(ctx context.Context, email string, password []byte) (*api.LoginResponse, error)
	Me(ctx context.Context) (*api.Profile, error)
	UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.Profile, error)
	ChangePassword(ctx context.Context, current, next []byte) error
	AvatarUploadURL(ctx context.Context, contentType string) (*api.AvatarUploadResponse, error)

	// GetProfile looks up a user by username or id.
	GetProfile(ctx context.Context, user string) (*api.PublicProfile, error)
	ListProfiles(ctx context.Context, req *api.ListProfilesRequest) (*api.ListProfilesResponse, error)

	CreateArticle(ctx context.Context, req *api.CreateArticleRequest) (*api.Article, error)
	GetArticle(ctx context.Context, slug string) (*api.Article, error)
	ListArticles(ctx context.Context, req *api.ListArticlesRequest) (*api.ListArticlesResponse, error)
	UpdateArticle(ctx context.Context, req *api.UpdateArticleRequest) (*api.Article, error)
	DeleteArticle(ctx context.Context, slug string) error

	Favorite(ctx context.Context, articleID int64) (*api.Article, error)
	Unfavorite(ctx context.Context, articleID int64) (*api.Article, error)
	AddTag(ctx context.Context, articleID int64, tag string) (*api.Article, error)
	RemoveTag(ctx context.Context, articleID int64, tag string) (*api.Article, error)
	ListTags(ctx context.Context) ([]string, error)
}
