package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/dmitrijs2005/conduit/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu    sync.RWMutex
	token string
}

var _ Client = (*GRPCClient)(nil)

// NewConduitClient creates a client for endpointURL. The connection is
// established lazily on the first call. opts are appended to the defaults
// (insecure transport, token interceptor).
func NewConduitClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// SetToken sets the session token sent with protected calls.
func (s *GRPCClient) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *GRPCClient) currentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the token to protected methods only, so
// public calls never carry a credential.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.currentToken(); token != "" && api.IsProtected(method) {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GRPCClient) invoke(ctx context.Context, method string, req, reply any) error {
	err := s.conn.Invoke(ctx, api.FullMethod(method), req, reply, grpc.CallContentSubtype(api.CodecName))
	return s.mapError(err)
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)

	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated:
		sentinel = ErrUnauthorized
	case codes.PermissionDenied:
		sentinel = ErrForbidden
	case codes.NotFound:
		sentinel = ErrNotFound
	case codes.AlreadyExists:
		sentinel = ErrConflict
	case codes.InvalidArgument:
		sentinel = ErrInvalidInput
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}

// Ping checks the server's health service.
func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := healthpb.NewHealthClient(s.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, username string, password []byte) (*api.Profile, error) {
	var resp api.ProfileResponse
	req := &api.RegisterRequest{Email: email, Username: username, Password: string(password)}
	if err := s.invoke(ctx, api.Register, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// Login authenticates and keeps the returned token for later calls.
func (s *GRPCClient) Login(ctx context.Context, email string, password []byte) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := s.invoke(ctx, api.Login, &api.LoginRequest{Email: email, Password: string(password)}, &resp); err != nil {
		return nil, err
	}
	s.SetToken(resp.Token)
	return &resp, nil
}

func (s *GRPCClient) Me(ctx context.Context) (*api.Profile, error) {
	var resp api.ProfileResponse
	if err := s.invoke(ctx, api.Me, &api.Empty{}, &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

func (s *GRPCClient) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.Profile, error) {
	var resp api.ProfileResponse
	if err := s.invoke(ctx, api.UpdateProfile, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, current, next []byte) error {
	req := &api.ChangePasswordRequest{CurrentPassword: string(current), NewPassword: string(next)}
	return s.invoke(ctx, api.ChangePassword, req, &api.Empty{})
}

func (s *GRPCClient) AvatarUploadURL(ctx context.Context, contentType string) (*api.AvatarUploadResponse, error) {
	var resp api.AvatarUploadResponse
	if err := s.invoke(ctx, api.AvatarUploadURL, &api.AvatarUploadRequest{ContentType: contentType}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) GetProfile(ctx context.Context, user string) (*api.PublicProfile, error) {
	var resp api.PublicProfileResponse
	if err := s.invoke(ctx, api.GetProfile, &api.GetProfileRequest{User: user}, &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

func (s *GRPCClient) ListProfiles(ctx context.Context, req *api.ListProfilesRequest) (*api.ListProfilesResponse, error) {
	var resp api.ListProfilesResponse
	if err := s.invoke(ctx, api.ListProfiles, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) article(ctx context.Context, method string, req any) (*api.Article, error) {
	var resp api.ArticleResponse
	if err := s.invoke(ctx, method, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Article, nil
}

func (s *GRPCClient) CreateArticle(ctx context.Context, req *api.CreateArticleRequest) (*api.Article, error) {
	return s.article(ctx, api.CreateArticle, req)
}

func (s *GRPCClient) GetArticle(ctx context.Context, slug string) (*api.Article, error) {
	return s.article(ctx, api.GetArticle, &api.GetArticleRequest{Slug: slug})
}

func (s *GRPCClient) ListArticles(ctx context.Context, req *api.ListArticlesRequest) (*api.ListArticlesResponse, error) {
	var resp api.ListArticlesResponse
	if err := s.invoke(ctx, api.ListArticles, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) UpdateArticle(ctx context.Context, req *api.UpdateArticleRequest) (*api.Article, error) {
	return s.article(ctx, api.UpdateArticle, req)
}

func (s *GRPCClient) DeleteArticle(ctx context.Context, slug string) error {
	return s.invoke(ctx, api.DeleteArticle, &api.DeleteArticleRequest{Slug: slug}, &api.Empty{})
}

func (s *GRPCClient) Favorite(ctx context.Context, articleID int64) (*api.Article, error) {
	return s.article(ctx, api.FavoriteArticle, &api.FavoriteRequest{ArticleID: articleID})
}

func (s *GRPCClient) Unfavorite(ctx context.Context, articleID int64) (*api.Article, error) {
	return s.article(ctx, api.UnfavoriteArticle, &api.FavoriteRequest{ArticleID: articleID})
}

func (s *GRPCClient) AddTag(ctx context.Context, articleID int64, tag string) (*api.Article, error) {
	return s.article(ctx, api.AddTag, &api.TagRequest{ArticleID: articleID, Tag: tag})
}

func (s *GRPCClient) RemoveTag(ctx context.Context, articleID int64, tag string) (*api.Article, error) {
	return s.article(ctx, api.RemoveTag, &api.TagRequest{ArticleID: articleID, Tag: tag})
}

func (s *GRPCClient) ListTags(ctx context.Context) ([]string, error) {
	var resp api.ListTagsResponse
	if err := s.invoke(ctx, api.ListTags, &api.Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}
