package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-admin-api/internal/models"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

// Header names set alongside the JSON body.
const (
	HeaderErrorCode  = "X-Error-Code"
	HeaderTotalCount = "X-Total-Count"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data       interface{}        `json:"data,omitempty"`
	Error      *appErrors.Error   `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON writes data with the given status.
func JSON(c *gin.Context, status int, data interface{}) {
	noStore(c)
	c.JSON(status, Envelope{Data: data})
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Created responds with HTTP 201.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Page writes one page of a listing. A nil slice is sent as [] so clients can
// always iterate data.
func Page[T any](c *gin.Context, items []T, pagination *models.Pagination) {
	if items == nil {
		items = []T{}
	}
	noStore(c)
	if pagination != nil {
		c.Header(HeaderTotalCount, strconv.Itoa(pagination.TotalCount))
	}
	c.JSON(http.StatusOK, Envelope{Data: items, Pagination: pagination})
}

// Error converts err to the error envelope and aborts the handler chain. The
// original error is attached to the context for the access log.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	noStore(c)
	c.Header(HeaderErrorCode, appErr.Code)
	c.AbortWithStatusJSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
