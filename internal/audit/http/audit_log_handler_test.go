package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/grants/internal/audit/domain"
	"github.com/allisson/grants/internal/audit/http/dto"
	auditUsecase "github.com/allisson/grants/internal/audit/usecase"
)

// MockAuditLogUseCase is a mock implementation of the audit use case
type MockAuditLogUseCase struct {
	mock.Mock
}

func (m *MockAuditLogUseCase) Append(ctx context.Context, entry auditUsecase.Entry) {
	m.Called(ctx, entry)
}

func (m *MockAuditLogUseCase) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditLog), args.Error(1)
}

func setupTestHandler(t *testing.T) (*AuditLogHandler, *MockAuditLogUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &MockAuditLogUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAuditLogHandler(mockUseCase, logger), mockUseCase
}

func sampleAuditLog(action auditDomain.Action) *auditDomain.AuditLog {
	requestID := uuid.Must(uuid.NewV7())
	return &auditDomain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		ActorID:      uuid.Must(uuid.NewV7()),
		ActorRole:    auditDomain.ActorRoleAdmin,
		Action:       action,
		TargetUserID: uuid.Must(uuid.NewV7()),
		RequestID:    &requestID,
		SourceIP:     "192.0.2.10",
		CreatedAt:    time.Now().UTC(),
	}
}

func doRequest(handler *AuditLogHandler, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, url, nil)
	handler.ListHandler(c)
	return w
}

func TestAuditLogHandler_ListHandler(t *testing.T) {
	t.Run("Success_NoFilters", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		logs := []*auditDomain.AuditLog{sampleAuditLog(auditDomain.ActionAccessUsed)}
		mockUseCase.On("List", mock.Anything, auditDomain.ListFilter{}, 0, 50).Return(logs, nil)

		w := doRequest(handler, "/v1/audit-logs")

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListAuditLogsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 1)
		assert.Equal(t, "access_used", response.Data[0].Action)
		assert.NotNil(t, response.Data[0].RequestID)
	})

	t.Run("Success_WithFilters", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		targetUserID := uuid.Must(uuid.NewV7())
		mockUseCase.On("List", mock.Anything, mock.MatchedBy(func(f auditDomain.ListFilter) bool {
			return f.TargetUserID != nil && *f.TargetUserID == targetUserID &&
				f.Action != nil && *f.Action == auditDomain.ActionAccessDenied &&
				f.CreatedAtFrom != nil && f.CreatedAtTo != nil
		}), 0, 50).Return([]*auditDomain.AuditLog{}, nil)

		w := doRequest(handler, "/v1/audit-logs?target_user_id="+targetUserID.String()+
			"&action=access_denied&created_at_from=2026-02-01T00:00:00Z&created_at_to=2026-02-14T23:59:59Z")

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_BadTargetUserID", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		w := doRequest(handler, "/v1/audit-logs?target_user_id=nope")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "List")
	})

	t.Run("Error_BadTimeFormat", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		w := doRequest(handler, "/v1/audit-logs?created_at_from=yesterday")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "List")
	})

	t.Run("Error_InvertedTimeRange", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		w := doRequest(handler,
			"/v1/audit-logs?created_at_from=2026-02-14T00:00:00Z&created_at_to=2026-02-01T00:00:00Z")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "List")
	})

	t.Run("Error_UseCaseFailure", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("List", mock.Anything, mock.Anything, 0, 50).Return(nil, assert.AnError)

		w := doRequest(handler, "/v1/audit-logs")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
