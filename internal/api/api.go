// Package api defines the Conduit gRPC contract shared by the server and the
// client: the service and method names, which methods require a session,
// and the request and response messages. Messages are encoded as JSON by
// the codec registered in this package.
package api

import "strings"

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "conduit.v1.Conduit"

// Method names, relative to ServiceName.
const (
	Register          = "Register"
	Login             = "Login"
	Me                = "Me"
	UpdateProfile     = "UpdateProfile"
	ChangePassword    = "ChangePassword"
	GetProfile        = "GetProfile"
	ListProfiles      = "ListProfiles"
	AvatarUploadURL   = "AvatarUploadURL"
	CreateArticle     = "CreateArticle"
	GetArticle        = "GetArticle"
	ListArticles      = "ListArticles"
	UpdateArticle     = "UpdateArticle"
	DeleteArticle     = "DeleteArticle"
	FavoriteArticle   = "FavoriteArticle"
	UnfavoriteArticle = "UnfavoriteArticle"
	AddTag            = "AddTag"
	RemoveTag         = "RemoveTag"
	ListTags          = "ListTags"
)

// Method describes one RPC of the service.
type Method struct {
	Name string
	// Protected methods run only for callers presenting a valid session token.
	Protected bool
}

// Methods lists every RPC of the service.
var Methods = []Method{
	{Name: Register},
	{Name: Login},
	{Name: Me, Protected: true},
	{Name: UpdateProfile, Protected: true},
	{Name: ChangePassword, Protected: true},
	{Name: GetProfile},
	{Name: ListProfiles},
	{Name: AvatarUploadURL, Protected: true},
	{Name: CreateArticle, Protected: true},
	{Name: GetArticle},
	{Name: ListArticles},
	{Name: UpdateArticle, Protected: true},
	{Name: DeleteArticle, Protected: true},
	{Name: FavoriteArticle, Protected: true},
	{Name: UnfavoriteArticle, Protected: true},
	{Name: AddTag, Protected: true},
	{Name: RemoveTag, Protected: true},
	{Name: ListTags},
}

var public = func() map[string]bool {
	m := make(map[string]bool, len(Methods))
	for _, md := range Methods {
		if !md.Protected {
			m[FullMethod(md.Name)] = true
		}
	}
	return m
}()

// FullMethod returns the "/service/method" form used on the wire.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// IsProtected reports whether fullMethod requires a session. Every method of
// ServiceName does unless Methods lists it as public; methods of other
// services (health checks, reflection) do not.
func IsProtected(fullMethod string) bool {
	if !strings.HasPrefix(fullMethod, "/"+ServiceName+"/") {
		return false
	}
	return !public[fullMethod]
}
