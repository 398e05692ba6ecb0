// Package reqctx carries request-scoped data through context.Context:
// request metadata, the authenticated actor and trace identifiers.
//
// Setters are used by HTTP middleware; everything downstream (services,
// the log handler, the audit logger) reads through the typed getters:
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithActor(ctx, claims)
//
//	userID, ok := reqctx.UserIDFromContext(ctx)
//	traceID := reqctx.TraceIDFromContext(ctx)
package reqctx
