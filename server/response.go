package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/ecommerce-shared/errors"
	"github.com/kbukum/ecommerce-shared/repository"
	"github.com/kbukum/ecommerce-shared/server/middleware"
)

// DataResponse is the success envelope for entity reads.
type DataResponse struct {
	Data any                    `json:"data"`
	Meta *repository.Pagination `json:"meta,omitempty"`
}

// RespondWithError renders an *errors.AppError as a problem envelope with
// the error's status. Any other error is an unhandled failure: it is handed
// to the error response middleware, or answered with a 500 envelope when the
// request is not behind it. The Gin chain is aborted either way.
func RespondWithError(c *gin.Context, err error) {
	defer c.Abort()
	if appErr, ok := apperrors.AsAppError(err); ok {
		p := appErr.ToProblem()
		c.JSON(p.Status, p)
		return
	}
	if middleware.Fail(c.Request, err) {
		return
	}
	p := apperrors.Internal(err).ToProblem()
	c.JSON(p.Status, p)
}

// RespondResult answers a repository write. Client errors such as a
// conflict are rendered as problems; other failures go to the error
// response middleware. A write that reports Flag false without an error,
// e.g. deleting a missing entity, is a 400 with the response as body.
//
//	resp, err := products.Create(ctx, &p)
//	server.RespondResult(c, http.StatusCreated, resp, err)
func RespondResult(c *gin.Context, okStatus int, resp repository.Response, err error) {
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.HTTPStatus < http.StatusInternalServerError {
			RespondWithError(c, err)
			return
		}
		if middleware.Fail(c.Request, err) {
			c.Abort()
			return
		}
		RespondWithError(c, err)
		return
	}
	if !resp.Flag {
		c.AbortWithStatusJSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(okStatus, resp)
}

// RespondPage sends a 200 with the page items and their pagination.
func RespondPage[T any](c *gin.Context, page *repository.Paged[T]) {
	c.JSON(http.StatusOK, DataResponse{Data: page.Data, Meta: &page.Pagination})
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondCreated sends a 201 response wrapping data.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
