package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Error is a handler failure rendered as {"error": Message}.
type Error struct {
	Code    int
	Message string
	// Locked marks a private profile so the client can show its lock screen.
	Locked bool
}

type HandlerFunc func(ctx *gin.Context) (any, *Error)
type HandlerFuncWithAuth func(ctx *gin.Context, userID string) (any, *Error)

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			writeError(ctx, apiErr)
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := CurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		result, apiErr := h(ctx, userID)
		if apiErr != nil {
			writeError(ctx, apiErr)
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

func writeError(ctx *gin.Context, e *Error) {
	body := gin.H{"error": e.Message}
	if e.Locked {
		body["locked"] = true
	}
	ctx.JSON(e.Code, body)
}

func badRequest(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}

// errorFrom maps domain errors to HTTP responses. Anything unrecognised is
// logged and hidden behind a 500.
func errorFrom(err error) *Error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return &Error{Code: http.StatusNotFound, Message: "not found"}
	case errors.Is(err, model.ErrPrivateProfile):
		return &Error{Code: http.StatusForbidden, Message: "this profile is private", Locked: true}
	case errors.Is(err, model.ErrFeatureDisabled), errors.Is(err, model.ErrPermissionDenied):
		return &Error{Code: http.StatusForbidden, Message: err.Error()}
	case errors.Is(err, model.ErrInvalidPrayer), errors.Is(err, model.ErrInvalidRecord):
		return badRequest(err.Error())
	}
	log.Error().Err(err).Msg("request failed")
	return &Error{Code: http.StatusInternalServerError, Message: "internal error"}
}
