package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-admin-api/internal/models"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestPageSendsEmptyListAndTotal(t *testing.T) {
	c, rec := newContext()
	var items []models.Checkin

	Page(c, items, models.NewPagination(2, 10, 0))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get(HeaderTotalCount))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"data":[],"pagination":{"page":2,"page_size":10,"total_count":0,"total_pages":0}}`, rec.Body.String())
}

func TestErrorAbortsAndRecordsCause(t *testing.T) {
	c, rec := newContext()
	cause := errors.New("dial tcp: connection refused")

	Error(c, appErrors.Wrap(cause, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan"))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", rec.Header().Get(HeaderErrorCode))
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors.String(), "connection refused")

	var body Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "failed to load plan", body.Error.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestErrorWrapsUntypedErrors(t *testing.T) {
	c, rec := newContext()

	Error(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, appErrors.ErrInternal.Code, rec.Header().Get(HeaderErrorCode))
}
