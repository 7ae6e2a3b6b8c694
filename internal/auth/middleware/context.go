package auth

import "context"

type ctxKey string

const ctxKeySub ctxKey = "sub"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySub).(string); ok {
		return v
	}
	return ""
}

const ctxKeySubSink ctxKey = "sub_sink"

// WithSubjectSink registers a pointer that JWTMiddleware fills with the
// authenticated subject, so outer middleware can see it after the fact.
func WithSubjectSink(ctx context.Context, dst *string) context.Context {
	return context.WithValue(ctx, ctxKeySubSink, dst)
}

func reportSubject(ctx context.Context, sub string) {
	if dst, ok := ctx.Value(ctxKeySubSink).(*string); ok && dst != nil {
		*dst = sub
	}
}
