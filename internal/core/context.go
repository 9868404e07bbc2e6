package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "import_client"

// ClientInfo identifies who submitted an import, for logging only.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// ContextWithClient attaches the submitting client to ctx.
func ContextWithClient(ctx context.Context, c ClientInfo) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// ClientFromContext returns the client attached by ContextWithClient, if any.
func ClientFromContext(ctx context.Context) (ClientInfo, bool) {
	c, ok := ctx.Value(ctxKeyClient).(ClientInfo)
	return c, ok
}

// clientLogFields returns slog key/value pairs for the client in ctx.
func clientLogFields(ctx context.Context) []any {
	c, ok := ClientFromContext(ctx)
	if !ok {
		return nil
	}
	var fields []any
	if c.IPAddress != "" {
		fields = append(fields, "client_ip", c.IPAddress)
	}
	if c.UserAgent != "" {
		fields = append(fields, "user_agent", c.UserAgent)
	}
	return fields
}
