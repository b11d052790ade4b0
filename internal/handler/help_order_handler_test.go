package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/internal/service"
	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
)

type fakeHelpOrderSrv struct {
	answered map[string]bool
	asked    []string
}

func (f *fakeHelpOrderSrv) Ask(_ context.Context, studentID string, req service.AskRequest) (*models.HelpOrderDetail, error) {
	f.asked = append(f.asked, req.Question)
	return &models.HelpOrderDetail{HelpOrder: models.HelpOrder{ID: "h-1", StudentID: studentID, Question: req.Question}}, nil
}

func (f *fakeHelpOrderSrv) ListOpen(_ context.Context, page int) ([]models.HelpOrderDetail, *models.Pagination, error) {
	return nil, models.NewPagination(page, 10, 0), nil
}

func (f *fakeHelpOrderSrv) ListForStudent(_ context.Context, studentID string, page int) ([]models.HelpOrderDetail, *models.Pagination, error) {
	return nil, models.NewPagination(page, 10, 0), nil
}

func (f *fakeHelpOrderSrv) Answer(_ context.Context, id string, req service.AnswerRequest) (*models.HelpOrderDetail, error) {
	if f.answered[id] {
		return nil, appErrors.ErrAlreadyAnswered
	}
	f.answered[id] = true
	answer := req.Answer
	return &models.HelpOrderDetail{HelpOrder: models.HelpOrder{ID: id, Answer: &answer}}, nil
}

func jsonContext(method, target, body string, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	return c, rec
}

func TestHelpOrderHandlerAsk(t *testing.T) {
	srv := &fakeHelpOrderSrv{answered: map[string]bool{}}
	handler := NewHelpOrderHandler(srv)

	c, rec := jsonContext(http.MethodPost, "/students/s-1/help-orders", `{"question":"How long should I rest?"}`, gin.Params{{Key: "id", Value: "s-1"}})
	handler.Ask(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"How long should I rest?"}, srv.asked)

	c, rec = jsonContext(http.MethodPost, "/students/s-1/help-orders", `{"question":`, gin.Params{{Key: "id", Value: "s-1"}})
	handler.Ask(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHelpOrderHandlerAnswerTwiceConflicts(t *testing.T) {
	handler := NewHelpOrderHandler(&fakeHelpOrderSrv{answered: map[string]bool{}})
	params := gin.Params{{Key: "id", Value: "h-1"}}

	c, rec := jsonContext(http.MethodPost, "/help-orders/h-1/answer", `{"answer":"Two days."}`, params)
	handler.Answer(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Two days.")

	c, rec = jsonContext(http.MethodPost, "/help-orders/h-1/answer", `{"answer":"Three days."}`, params)
	handler.Answer(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "HELP_ORDER_ALREADY_ANSWERED")
}
