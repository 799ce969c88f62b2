package grpc

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/server/auth"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/dmitrijs2005/conduit/internal/server/services"
)

// principal returns the caller authenticated by the guard interceptor.
func principal(ctx context.Context) (*models.User, error) {
	u, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, common.ErrUnauthenticated
	}
	return u, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.ProfileResponse, error) {
	u, err := s.svc.Auth.Register(ctx, services.RegisterInput{
		Email:    req.Email,
		UserName: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return &api.ProfileResponse{Profile: toProfile(u.Profile())}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	res, err := s.svc.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &api.LoginResponse{Profile: toProfile(res.Profile), Token: res.Token, ExpiresAt: res.ExpiresAt}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *api.Empty) (*api.ProfileResponse, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return &api.ProfileResponse{Profile: toProfile(u.Profile())}, nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.ProfileResponse, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.svc.Auth.UpdateProfile(ctx, u.ID, toProfilePatch(req))
	if err != nil {
		return nil, err
	}
	return &api.ProfileResponse{Profile: toProfile(updated.Profile())}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *api.ChangePasswordRequest) (*api.Empty, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Auth.ChangePassword(ctx, u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, err
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.PublicProfileResponse, error) {
	u, err := s.svc.Profiles.Get(ctx, req.User)
	if err != nil {
		return nil, err
	}
	return &api.PublicProfileResponse{Profile: toPublicProfile(u.PublicProfile())}, nil
}

func (s *GRPCServer) ListProfiles(ctx context.Context, req *api.ListProfilesRequest) (*api.ListProfilesResponse, error) {
	page, err := s.svc.Profiles.List(ctx, models.UserQuery{Limit: req.Limit, Offset: req.Offset})
	if err != nil {
		return nil, err
	}

	resp := &api.ListProfilesResponse{Profiles: make([]api.PublicProfile, 0, len(page.Users)), Total: page.Total}
	for _, u := range page.Users {
		resp.Profiles = append(resp.Profiles, toPublicProfile(u.PublicProfile()))
	}
	return resp, nil
}

func (s *GRPCServer) AvatarUploadURL(ctx context.Context, req *api.AvatarUploadRequest) (*api.AvatarUploadResponse, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	up, err := s.svc.Avatars.RequestUpload(ctx, u.ID, req.ContentType)
	if err != nil {
		return nil, err
	}
	return &api.AvatarUploadResponse{Key: up.Key, URL: up.URL, ExpiresAt: up.ExpiresAt}, nil
}

func (s *GRPCServer) CreateArticle(ctx context.Context, req *api.CreateArticleRequest) (*api.ArticleResponse, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.Articles.Create(ctx, u.ID, services.ArticleInput{
		Title: req.Title,
		Body:  req.Body,
		Slug:  req.Slug,
		Tags:  req.TagList,
	})
	if err != nil {
		return nil, err
	}
	return toArticleResponse(a), nil
}

func (s *GRPCServer) GetArticle(ctx context.Context, req *api.GetArticleRequest) (*api.ArticleResponse, error) {
	a, err := s.svc.Articles.Get(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	return toArticleResponse(a), nil
}

func (s *GRPCServer) ListArticles(ctx context.Context, req *api.ListArticlesRequest) (*api.ListArticlesResponse, error) {
	page, err := s.svc.Articles.List(ctx, toArticleQuery(req))
	if err != nil {
		return nil, err
	}

	resp := &api.ListArticlesResponse{Articles: make([]api.Article, 0, len(page.Articles)), Total: page.Total}
	for _, a := range page.Articles {
		resp.Articles = append(resp.Articles, toArticle(a))
	}
	return resp, nil
}

func (s *GRPCServer) UpdateArticle(ctx context.Context, req *api.UpdateArticleRequest) (*api.ArticleResponse, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.Articles.Update(ctx, u.ID, req.Slug, models.ArticlePatch{
		Title: req.Title,
		Body:  req.Body,
		Slug:  req.NewSlug,
	})
	if err != nil {
		return nil, err
	}
	return toArticleResponse(a), nil
}

func (s *GRPCServer) DeleteArticle(ctx context.Context, req *api.DeleteArticleRequest) (*api.Empty, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Articles.Delete(ctx, u.ID, req.Slug); err != nil {
		return nil, err
	}
	return &api.Empty{}, nil
}

// FavoriteArticle always acts for the caller; the request cannot name
// another user.
func (s *GRPCServer) FavoriteArticle(ctx context.Context, req *api.FavoriteRequest) (*api.ArticleResponse, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.Favorites.Favorite(ctx, u.ID, req.ArticleID)
	if err != nil {
		return nil, err
	}
	return toArticleResponse(a), nil
}

func (s *GRPCServer) UnfavoriteArticle(ctx context.Context, req *api.FavoriteRequest) (*api.ArticleResponse, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.Favorites.Unfavorite(ctx, u.ID, req.ArticleID)
	if err != nil {
		return nil, err
	}
	return toArticleResponse(a), nil
}

func (s *GRPCServer) AddTag(ctx context.Context, req *api.TagRequest) (*api.ArticleResponse, error) {
	a, err := s.svc.Tags.AddTag(ctx, req.ArticleID, req.Tag)
	if err != nil {
		return nil, err
	}
	return toArticleResponse(a), nil
}

func (s *GRPCServer) RemoveTag(ctx context.Context, req *api.TagRequest) (*api.ArticleResponse, error) {
	a, err := s.svc.Tags.RemoveTag(ctx, req.ArticleID, req.Tag)
	if err != nil {
		return nil, err
	}
	return toArticleResponse(a), nil
}

func (s *GRPCServer) ListTags(ctx context.Context, _ *api.Empty) (*api.ListTagsResponse, error) {
	tags, err := s.svc.Tags.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := &api.ListTagsResponse{Tags: make([]string, 0, len(tags))}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, t.Name)
	}
	return resp, nil
}
