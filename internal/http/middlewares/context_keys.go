package middlewares

const (
	CtxRequestID = "request_id"

	// set by RequireSession after verifying the cookie itself
	ctxSessionKey = "auth.session"
	// set by the route guard; advisory, only page handlers read it
	ctxGuardSessionKey = "guard.session"
)
