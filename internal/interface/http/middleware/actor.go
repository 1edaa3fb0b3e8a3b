package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/stockledger/pkg/errors"
	"github.com/xiebiao/stockledger/pkg/response"
)

// HeaderActorID 操作人请求头
// 身份认证由网关完成，服务只接收已认证的操作人标识
const HeaderActorID = "X-Actor-ID"

const maxActorLength = 64

// Actor 提取操作人写入Context，缺省时流水和审计记为system
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if utf8.RuneCountInString(actor) > maxActorLength {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "操作人标识过长")
			c.Abort()
			return
		}
		if actor != "" {
			c.Set("actor_id", actor)
		}
		c.Next()
	}
}

// GetActorID 当前操作人，未提供时返回空
func GetActorID(c *gin.Context) string {
	return c.GetString("actor_id")
}
