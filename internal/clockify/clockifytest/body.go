package clockifytest

import "context"

type body map[string]any

type bodyKey struct{}

func withBody(ctx context.Context, b body) context.Context {
	return context.WithValue(ctx, bodyKey{}, b)
}

func bodyFrom(ctx context.Context) body {
	b, _ := ctx.Value(bodyKey{}).(body)
	return b
}

func (b body) str(key string) string {
	v, _ := b[key].(string)
	return v
}

func (b body) boolean(key string) bool {
	v, _ := b[key].(bool)
	return v
}
