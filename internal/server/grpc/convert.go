package grpc

import (
	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/dmitrijs2005/conduit/internal/server/services"
)

func toProfile(p models.Profile) api.Profile {
	return api.Profile{ID: p.ID, Email: p.Email, Username: p.UserName, Bio: p.Bio, Image: p.Image}
}

func toPublicProfile(p models.PublicProfile) api.PublicProfile {
	return api.PublicProfile{ID: p.ID, Username: p.UserName, Bio: p.Bio, Image: p.Image}
}

func toUserRef(u models.UserRef) api.UserRef {
	return api.UserRef{ID: u.ID, Username: u.UserName}
}

func toArticle(a *models.Article) api.Article {
	favorited := make([]api.UserRef, 0, len(a.FavoritedBy))
	for _, u := range a.FavoritedBy {
		favorited = append(favorited, toUserRef(u))
	}

	return api.Article{
		ID:             a.ID,
		Slug:           a.Slug,
		Title:          a.Title,
		Body:           a.Body,
		Author:         toUserRef(a.Author),
		FavoritedBy:    favorited,
		FavoritesCount: len(favorited),
		TagList:        a.TagNames(),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toArticleResponse(a *models.Article) *api.ArticleResponse {
	return &api.ArticleResponse{Article: toArticle(a)}
}

func toArticleQuery(req *api.ListArticlesRequest) models.ArticleQuery {
	return models.ArticleQuery{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Author:    req.Author,
		Tag:       req.Tag,
		Favorited: req.Favorited,
		OrderBy:   req.OrderBy,
		Order:     req.Order,
	}
}

func toProfilePatch(req *api.UpdateProfileRequest) services.ProfilePatch {
	return services.ProfilePatch{Email: req.Email, UserName: req.Username, Bio: req.Bio, Image: req.Image}
}
