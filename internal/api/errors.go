package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Stainless-Nata/awesomation/internal/account"
	"github.com/Stainless-Nata/awesomation/internal/auth"
	"github.com/Stainless-Nata/awesomation/internal/command"
	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/location"
	"github.com/Stainless-Nata/awesomation/internal/proxy"
	"github.com/Stainless-Nata/awesomation/internal/push"
	"github.com/Stainless-Nata/awesomation/internal/zwave"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeNotFound           = "not_found"
	ErrCodeUnauthorized       = "unauthorised"
	ErrCodeForbidden          = "forbidden"
	ErrCodeConflict           = "conflict"
	ErrCodeInternal           = "internal_error"
	ErrCodeValidation         = "validation_error"
	ErrCodeUnknownCommand     = "unknown_command"
	ErrCodeUnknownAccountType = "unknown_account_type"
	ErrCodeUpstream           = "upstream_error"
)

// errorMapping pairs domain sentinels with the response they produce.
type errorMapping struct {
	targets []error
	status  int
	code    string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{
		targets: []error{command.ErrUnknownCommand, account.ErrUnknownCommand},
		status:  http.StatusBadRequest,
		code:    ErrCodeUnknownCommand,
	},
	{
		targets: []error{account.ErrUnknownAccountType},
		status:  http.StatusBadRequest,
		code:    ErrCodeUnknownAccountType,
	},
	{
		targets: []error{
			device.ErrInvalidDevice, device.ErrInvalidKind, device.ErrInvalidName,
			location.ErrInvalidRoom, location.ErrInvalidName,
			zwave.ErrInvalidNotification, zwave.ErrNotZWave,
			account.ErrInvalidRequest, command.ErrInvalidArgs,
			proxy.ErrInvalidEvent, proxy.ErrUnsupportedDeviceType,
			push.ErrInvalidChannel,
		},
		status: http.StatusBadRequest,
		code:   ErrCodeValidation,
	},
	{
		targets: []error{
			device.ErrDeviceNotFound, location.ErrRoomNotFound,
			account.ErrLinkNotFound, auth.ErrPersonNotFound,
		},
		status: http.StatusNotFound,
		code:   ErrCodeNotFound,
	},
	{
		targets: []error{device.ErrDeviceExists, device.ErrOwnerChanged, account.ErrNotLinked},
		status:  http.StatusConflict,
		code:    ErrCodeConflict,
	},
	{
		targets: []error{push.ErrChannelForbidden, auth.ErrBuildingForbidden},
		status:  http.StatusForbidden,
		code:    ErrCodeForbidden,
	},
	{
		targets: []error{auth.ErrTokenInvalid},
		status:  http.StatusUnauthorized,
		code:    ErrCodeUnauthorized,
	},
	{
		targets: []error{account.ErrExchangeFailed},
		status:  http.StatusBadGateway,
		code:    ErrCodeUpstream,
	},
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps err onto a response. Unmapped errors are logged and
// reported as 500 without their detail.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		for _, target := range m.targets {
			if errors.Is(err, target) {
				writeError(w, m.status, m.code, err.Error())
				return
			}
		}
	}

	if errors.Is(err, push.ErrMixedBuildings) {
		s.logger.Error("push batch assertion failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	} else {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}
	writeInternalError(w, "internal server error")
}
