package grpc

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/logging"
	"github.com/dmitrijs2005/conduit/internal/server/auth"
	"github.com/dmitrijs2005/conduit/internal/server/config"
	"github.com/dmitrijs2005/conduit/internal/server/observability"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/conduit/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// syncBuffer collects log output written from server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	conn    *grpc.ClientConn
	tokens  *auth.TokenService
	metrics *observability.Metrics
	logs    *syncBuffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logs := &syncBuffer{}
	logger := logging.Setup("json", "debug", logs)

	rm := repomanager.NewMemoryRepositoryManager()
	tokens := auth.NewTokenService([]byte("test-secret"))
	authSvc, err := services.NewAuthService(rm, auth.NewBcryptHasher(bcrypt.MinCost), tokens, time.Hour, logger)
	require.NoError(t, err)

	cfg := config.Default()
	svc := Services{
		Auth:      authSvc,
		Profiles:  services.NewProfileService(rm),
		Articles:  services.NewArticleService(rm, logger),
		Favorites: services.NewFavoriteService(rm, logger),
		Tags:      services.NewTagService(rm, logger),
		Avatars:   services.NewAvatarService(&cfg, authSvc),
	}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	s := NewGRPCServer("bufnet", svc, auth.NewGuard(tokens, rm.Users()), metrics, logger)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		require.NoError(t, <-done)
	})

	return &testEnv{conn: conn, tokens: tokens, metrics: metrics, logs: logs}
}

func invoke[Resp any](ctx context.Context, env *testEnv, method string, req any) (*Resp, error) {
	out := new(Resp)
	err := env.conn.Invoke(ctx, api.FullMethod(method), req, out, grpc.CallContentSubtype(api.CodecName))
	return out, err
}

func bearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, "Bearer "+token)
}

// TestEndToEnd_SessionScenario walks through registration, login, the guard
// and the favorite toggle as one client would.
func TestEndToEnd_SessionScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := invoke[api.ProfileResponse](ctx, env, api.Register,
		&api.RegisterRequest{Email: "a@x.com", Username: "alice", Password: "secretpw1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", reg.Profile.Username)

	_, err = invoke[api.ProfileResponse](ctx, env, api.Register,
		&api.RegisterRequest{Email: "a@x.com", Username: "alice2", Password: "secretpw1"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "email")

	_, err = invoke[api.LoginResponse](ctx, env, api.Login, &api.LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "invalid credentials", status.Convert(err).Message())

	_, err = invoke[api.LoginResponse](ctx, env, api.Login, &api.LoginRequest{Email: "b@x.com", Password: "wrong"})
	assert.Equal(t, "invalid credentials", status.Convert(err).Message())

	login, err := invoke[api.LoginResponse](ctx, env, api.Login, &api.LoginRequest{Email: "a@x.com", Password: "secretpw1"})
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, reg.Profile.ID, login.Profile.ID)

	created, err := invoke[api.ArticleResponse](bearer(ctx, login.Token), env, api.CreateArticle,
		&api.CreateArticleRequest{Title: "How to train your dragon", Body: "Carefully.", TagList: []string{"dragons"}})
	require.NoError(t, err)
	articleID := created.Article.ID
	assert.Equal(t, "how-to-train-your-dragon", created.Article.Slug)
	assert.Equal(t, []string{"dragons"}, created.Article.TagList)

	expired, _, err := env.tokens.Issue(reg.Profile.ID, auth.SessionClaims{Email: "a@x.com"}, -time.Minute)
	require.NoError(t, err)
	_, err = invoke[api.ArticleResponse](bearer(ctx, expired), env, api.FavoriteArticle, &api.FavoriteRequest{ArticleID: articleID})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "unauthenticated", status.Convert(err).Message())

	for i := 0; i < 2; i++ {
		fav, err := invoke[api.ArticleResponse](bearer(ctx, login.Token), env, api.FavoriteArticle, &api.FavoriteRequest{ArticleID: articleID})
		require.NoError(t, err)
		assert.Equal(t, []api.UserRef{{ID: reg.Profile.ID, Username: "alice"}}, fav.Article.FavoritedBy)
		assert.Equal(t, 1, fav.Article.FavoritesCount)
	}

	for i := 0; i < 2; i++ {
		unfav, err := invoke[api.ArticleResponse](bearer(ctx, login.Token), env, api.UnfavoriteArticle, &api.FavoriteRequest{ArticleID: articleID})
		require.NoError(t, err)
		assert.Empty(t, unfav.Article.FavoritedBy)
	}

	_, err = invoke[api.ArticleResponse](bearer(ctx, login.Token), env, api.FavoriteArticle, &api.FavoriteRequest{ArticleID: 999})
	assert.Equal(t, codes.NotFound, status.Code(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AuthFailures.WithLabelValues("expired")))

	logs := env.logs.String()
	assert.NotContains(t, logs, "secretpw1")
	assert.NotContains(t, logs, login.Token)
	assert.NotContains(t, logs, "$2a$")
}

func TestEndToEnd_ProtectedRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := invoke[api.ProfileResponse](ctx, env, api.Me, &api.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = invoke[api.ArticleResponse](ctx, env, api.AddTag, &api.TagRequest{ArticleID: 1, Tag: "go"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx = metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, "Token abc")
	_, err = invoke[api.ProfileResponse](ctx, env, api.Me, &api.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestEndToEnd_PublicMethodsAndHeaders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var header metadata.MD
	out := new(api.ListTagsResponse)
	err := env.conn.Invoke(ctx, api.FullMethod(api.ListTags), &api.Empty{}, out,
		grpc.CallContentSubtype(api.CodecName), grpc.Header(&header))
	require.NoError(t, err)
	assert.Empty(t, out.Tags)
	assert.Len(t, header.Get(common.RequestIDHeaderName), 1)

	list, err := invoke[api.ListArticlesResponse](ctx, env, api.ListArticles, &api.ListArticlesRequest{OrderBy: "body"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, list.Articles)

	_, err = invoke[api.ArticleResponse](ctx, env, api.GetArticle, &api.GetArticleRequest{Slug: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestEndToEnd_ProfileAndArticles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "bob"} {
		_, err := invoke[api.ProfileResponse](ctx, env, api.Register,
			&api.RegisterRequest{Email: u + "@x.com", Username: u, Password: "secretpw1"})
		require.NoError(t, err)
	}
	alice, err := invoke[api.LoginResponse](ctx, env, api.Login, &api.LoginRequest{Email: "alice@x.com", Password: "secretpw1"})
	require.NoError(t, err)
	bob, err := invoke[api.LoginResponse](ctx, env, api.Login, &api.LoginRequest{Email: "bob@x.com", Password: "secretpw1"})
	require.NoError(t, err)
	asAlice, asBob := bearer(ctx, alice.Token), bearer(ctx, bob.Token)

	bio := "dragon trainer"
	me, err := invoke[api.ProfileResponse](asAlice, env, api.UpdateProfile, &api.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, me.Profile.Bio)

	me, err = invoke[api.ProfileResponse](asAlice, env, api.Me, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, bio, me.Profile.Bio)

	_, err = invoke[api.Empty](asAlice, env, api.ChangePassword, &api.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "x"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	a, err := invoke[api.ArticleResponse](asAlice, env, api.CreateArticle, &api.CreateArticleRequest{Title: "Draft", Body: "b"})
	require.NoError(t, err)

	// Any authenticated caller may tag; only the author may edit.
	tagged, err := invoke[api.ArticleResponse](asBob, env, api.AddTag, &api.TagRequest{ArticleID: a.Article.ID, Tag: "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tagged.Article.TagList)

	title := "Final"
	_, err = invoke[api.ArticleResponse](asBob, env, api.UpdateArticle, &api.UpdateArticleRequest{Slug: "draft", Title: &title})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	updated, err := invoke[api.ArticleResponse](asAlice, env, api.UpdateArticle, &api.UpdateArticleRequest{Slug: "draft", Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Article.Title)

	tags, err := invoke[api.ListTagsResponse](ctx, env, api.ListTags, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tags.Tags)

	_, err = invoke[api.ArticleResponse](asBob, env, api.RemoveTag, &api.TagRequest{ArticleID: a.Article.ID, Tag: "go"})
	require.NoError(t, err)

	_, err = invoke[api.Empty](asBob, env, api.DeleteArticle, &api.DeleteArticleRequest{Slug: "draft"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, err = invoke[api.Empty](asAlice, env, api.DeleteArticle, &api.DeleteArticleRequest{Slug: "draft"})
	require.NoError(t, err)

	list, err := invoke[api.ListArticlesResponse](ctx, env, api.ListArticles, &api.ListArticlesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)

	_, err = invoke[api.AvatarUploadResponse](asAlice, env, api.AvatarUploadURL, &api.AvatarUploadRequest{ContentType: "text/plain"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestEndToEnd_PublicProfiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var alice *api.ProfileResponse
	for _, u := range []string{"bob", "alice"} {
		reg, err := invoke[api.ProfileResponse](ctx, env, api.Register,
			&api.RegisterRequest{Email: u + "@x.com", Username: u, Password: "secretpw1"})
		require.NoError(t, err)
		if u == "alice" {
			alice = reg
		}
	}

	for _, ref := range []string{"alice", alice.Profile.ID} {
		raw, err := invoke[map[string]map[string]any](ctx, env, api.GetProfile, &api.GetProfileRequest{User: ref})
		require.NoError(t, err)
		assert.Equal(t, "alice", (*raw)["profile"]["username"])
		assert.NotContains(t, (*raw)["profile"], "email")
	}

	_, err := invoke[api.PublicProfileResponse](ctx, env, api.GetProfile, &api.GetProfileRequest{User: "nobody"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	list, err := invoke[api.ListProfilesResponse](ctx, env, api.ListProfiles, &api.ListProfilesRequest{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, []api.PublicProfile{{ID: alice.Profile.ID, Username: "alice"}}, list.Profiles)

	_, err = invoke[api.ListProfilesResponse](ctx, env, api.ListProfiles, &api.ListProfilesRequest{Limit: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServiceDesc_MatchesMethodTable(t *testing.T) {
	var served []string
	for _, md := range serviceDesc.Methods {
		served = append(served, md.MethodName)
	}

	var listed []string
	for _, md := range api.Methods {
		listed = append(listed, md.Name)
	}

	assert.ElementsMatch(t, listed, served)
}

func TestEndToEnd_Health(t *testing.T) {
	env := newTestEnv(t)

	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:0", Services{}, nil, nil, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:99999", Services{}, nil, nil, logging.Nop{})
	require.Error(t, s.Run(context.Background()))
}
