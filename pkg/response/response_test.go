package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/stockledger/pkg/errors"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		code int
		want int
	}{
		{"成功", 0, http.StatusOK},
		{"库存记录不存在", apperrors.ErrCodeInventoryNotFound, http.StatusNotFound},
		{"参数错误", apperrors.ErrCodeInvalidParams, http.StatusBadRequest},
		{"商品已停用", apperrors.ErrCodeProductInactive, http.StatusBadRequest},
		{"库存记录已停用", apperrors.ErrCodeInventoryInactive, http.StatusBadRequest},
		{"库存不足", apperrors.ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{"版本冲突", apperrors.ErrCodeConcurrencyConflict, http.StatusConflict},
		{"存储不可用", apperrors.ErrCodeStoreUnavailable, http.StatusServiceUnavailable},
		{"内部错误", apperrors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.code))
		})
	}
}

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	Error(c, apperrors.New(apperrors.ErrCodeAlertNotFound, "预警不存在"))

	require.Equal(t, http.StatusNotFound, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.ErrCodeAlertNotFound, body.Code)
	assert.Equal(t, "预警不存在", body.Message)
	assert.Nil(t, body.Data)

	require.Len(t, c.Errors, 1, "错误挂到gin上下文")
	assert.Equal(t, apperrors.ErrCodeAlertNotFound, apperrors.CodeOf(c.Errors[0].Err))
}

func TestNewPageData(t *testing.T) {
	page := NewPageData([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, page.TotalPages)

	empty := NewPageData(nil, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
