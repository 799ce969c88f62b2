package grpc

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/api"
	"google.golang.org/grpc"
)

// ConduitServer is the server side of the api.ServiceName service.
type ConduitServer interface {
	Register(context.Context, *api.RegisterRequest) (*api.ProfileResponse, error)
	Login(context.Context, *api.LoginRequest) (*api.LoginResponse, error)
	Me(context.Context, *api.Empty) (*api.ProfileResponse, error)
	UpdateProfile(context.Context, *api.UpdateProfileRequest) (*api.ProfileResponse, error)
	ChangePassword(context.Context, *api.ChangePasswordRequest) (*api.Empty, error)
	GetProfile(context.Context, *api.GetProfileRequest) (*api.PublicProfileResponse, error)
	ListProfiles(context.Context, *api.ListProfilesRequest) (*api.ListProfilesResponse, error)
	AvatarUploadURL(context.Context, *api.AvatarUploadRequest) (*api.AvatarUploadResponse, error)
	CreateArticle(context.Context, *api.CreateArticleRequest) (*api.ArticleResponse, error)
	GetArticle(context.Context, *api.GetArticleRequest) (*api.ArticleResponse, error)
	ListArticles(context.Context, *api.ListArticlesRequest) (*api.ListArticlesResponse, error)
	UpdateArticle(context.Context, *api.UpdateArticleRequest) (*api.ArticleResponse, error)
	DeleteArticle(context.Context, *api.DeleteArticleRequest) (*api.Empty, error)
	FavoriteArticle(context.Context, *api.FavoriteRequest) (*api.ArticleResponse, error)
	UnfavoriteArticle(context.Context, *api.FavoriteRequest) (*api.ArticleResponse, error)
	AddTag(context.Context, *api.TagRequest) (*api.ArticleResponse, error)
	RemoveTag(context.Context, *api.TagRequest) (*api.ArticleResponse, error)
	ListTags(context.Context, *api.Empty) (*api.ListTagsResponse, error)
}

var _ ConduitServer = (*GRPCServer)(nil)

// unary adapts a typed handler to grpc.MethodDesc, running it through the
// server's interceptor chain.
func unary[Req, Resp any](name string, call func(ConduitServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := api.FullMethod(name)

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ConduitServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ConduitServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*ConduitServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.Register, ConduitServer.Register),
		unary(api.Login, ConduitServer.Login),
		unary(api.Me, ConduitServer.Me),
		unary(api.UpdateProfile, ConduitServer.UpdateProfile),
		unary(api.ChangePassword, ConduitServer.ChangePassword),
		unary(api.GetProfile, ConduitServer.GetProfile),
		unary(api.ListProfiles, ConduitServer.ListProfiles),
		unary(api.AvatarUploadURL, ConduitServer.AvatarUploadURL),
		unary(api.CreateArticle, ConduitServer.CreateArticle),
		unary(api.GetArticle, ConduitServer.GetArticle),
		unary(api.ListArticles, ConduitServer.ListArticles),
		unary(api.UpdateArticle, ConduitServer.UpdateArticle),
		unary(api.DeleteArticle, ConduitServer.DeleteArticle),
		unary(api.FavoriteArticle, ConduitServer.FavoriteArticle),
		unary(api.UnfavoriteArticle, ConduitServer.UnfavoriteArticle),
		unary(api.AddTag, ConduitServer.AddTag),
		unary(api.RemoveTag, ConduitServer.RemoveTag),
		unary(api.ListTags, ConduitServer.ListTags),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "conduit/v1/conduit",
}
