package types

import "context"

type ContextKey string

const (
	CtxMerchantID ContextKey = "ctx_merchant_id"
	CtxUserID     ContextKey = "ctx_user_id"
	CtxRequestID  ContextKey = "ctx_request_id"

	// DefaultUserID is used for background workers and system operations
	// where no authenticated user is present in the context.
	DefaultUserID = "system"
)

func GetMerchantID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxMerchantID).(string); ok {
		return id
	}
	return ""
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxUserID).(string); ok {
		return id
	}
	return DefaultUserID
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxRequestID).(string); ok {
		return id
	}
	return ""
}
