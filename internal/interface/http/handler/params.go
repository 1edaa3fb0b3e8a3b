package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/stockledger/pkg/errors"
	"github.com/xiebiao/stockledger/pkg/response"
)

// uintParam 解析路径参数，失败时直接写出错误响应
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的"+name)
		return 0, false
	}
	return uint(v), true
}

// bindError 参数绑定失败
func bindError(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
}
