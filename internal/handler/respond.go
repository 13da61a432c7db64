package handler

import (
	"net/http"

	"relay-chat/internal/transport/httpdto"
	relay_errors "relay-chat/pkg/errors"
	"relay-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError translates a business error into the REST error body.
// Internal failures never leak their message in the error field.
func respondError(c *gin.Context, err error) {
	status := relay_errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		if l := logger.GetGlobalLogger(); l != nil {
			l.Errorf("request failed: %s", err.Error())
		}
		c.JSON(status, httpdto.NewErrorResponse("Server error", err.Error()))
		return
	}
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), ""))
}
