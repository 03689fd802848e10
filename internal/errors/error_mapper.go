package errors

import (
	stderrors "errors"
	"net/http"

	"rkd-client/pkg/rkd"
)

// MapError converts a technical error into a user-friendly AppError.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	technicalMessage := err.Error()

	switch {
	case stderrors.Is(err, rkd.ErrTimeout):
		return NewAppError(technicalMessage, MsgServiceTimeout, ErrCodeServiceTimeout, http.StatusGatewayTimeout, err)
	case stderrors.Is(err, rkd.ErrMalformedResponse):
		return NewAppError(technicalMessage, MsgUnexpectedResponse, ErrCodeUnexpectedResponse, http.StatusBadGateway, err)
	case stderrors.Is(err, rkd.ErrAuthentication) && stderrors.Is(err, rkd.ErrFault):
		return NewAppError(technicalMessage, MsgAuthenticationFailed, ErrCodeAuthenticationFailed, http.StatusBadGateway, err)
	case stderrors.Is(err, rkd.ErrFault):
		return NewAppError(technicalMessage, MsgServiceUnavailable, ErrCodeServiceFault, http.StatusBadGateway, err)
	case stderrors.Is(err, rkd.ErrTransport):
		return NewAppError(technicalMessage, MsgServiceUnavailable, ErrCodeServiceUnavailable, http.StatusServiceUnavailable, err)
	default:
		return NewAppError(technicalMessage, MsgInternalError, ErrCodeInternal, http.StatusInternalServerError, err)
	}
}
