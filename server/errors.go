package server

import (
	"errors"
	"net/http"

	"github.com/chaos-io/bgremover/rembg"
	"github.com/chaos-io/bgremover/util"
	"github.com/gin-gonic/gin"
)

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("upload too large")
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, rembg.ErrInvalidParameter),
		errors.Is(err, rembg.ErrInvalidDimensions),
		errors.Is(err, util.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, errSessionNotFound), errors.Is(err, errNoResult):
		return http.StatusNotFound
	case errors.Is(err, rembg.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusOf(err), gin.H{"error": err.Error()})
}
