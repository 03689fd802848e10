package errors

// User-friendly error messages
const (
	MsgAuthenticationFailed = "The data service rejected our credentials. Please contact an administrator."
	MsgServiceUnavailable   = "The data service is unreachable right now. Please try again in a few minutes."
	MsgServiceTimeout       = "The data service did not answer in time. Please try again."
	MsgUnexpectedResponse   = "The data service returned a response we could not understand."
	MsgRateLimited          = "Too many requests. Please wait a moment and try again."
	MsgUnauthorized         = "A valid gateway token is required."
	MsgInternalError        = "Something went wrong on our end. Please try again later."
)
