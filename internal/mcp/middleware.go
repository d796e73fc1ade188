package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const requestIDKey contextKey = iota

func getRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// requestMiddleware carries the HTTP request id into tool calls so their
// logs line up with the access log.
func requestMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				if id := extra.Header.Get("X-Request-Id"); id != "" {
					ctx = context.WithValue(ctx, requestIDKey, id)
				}
			}
			return next(ctx, method, req)
		}
	}
}
