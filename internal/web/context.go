package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/contacts/internal/core"
	appmw "github.com/JonMunkholm/contacts/internal/web/middleware"
)

// withClient adds the client IP and User-Agent to the request context for import logs.
func withClient(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), core.ClientInfo{
		IPAddress: appmw.ClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	})
}
