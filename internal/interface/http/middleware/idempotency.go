package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/redis"
	apperrors "github.com/xiebiao/stockledger/pkg/errors"
	"github.com/xiebiao/stockledger/pkg/metrics"
	"github.com/xiebiao/stockledger/pkg/response"
)

// HeaderIdempotencyKey 幂等键请求头
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay 重放的响应带上该头
const HeaderIdempotentReplay = "Idempotent-Replayed"

// IdempotencyStore 幂等键存储
type IdempotencyStore interface {
	Acquire(ctx context.Context, scope, fingerprint string) (*redis.StoredResponse, bool, error)
	Complete(ctx context.Context, scope string, resp redis.StoredResponse) error
	Release(ctx context.Context, scope string) error
}

// responseRecorder 复制写出的响应体
type responseRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency 写接口的幂等键
//
// 同一操作人、同一个键的第一个响应被保存并在重试时原样返回，
// 避免客户端超时重试导致重复出入库。请求体不同则拒绝；
// 第一个请求还没完成时返回409。
// 可重试的失败(版本冲突、存储不可用)不保存，客户端可以用同一个键再试。
func Idempotency(store IdempotencyStore, maxKeySize int, logger *zap.Logger) gin.HandlerFunc {
	if maxKeySize <= 0 {
		maxKeySize = 128
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxKeySize {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "幂等键过长")
			c.Abort()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		fingerprint := fingerprintOf(c.Request.Method, c.Request.URL.Path, body)
		scope := GetActorID(c) + ":" + key
		ctx := c.Request.Context()

		existing, acquired, err := store.Acquire(ctx, scope, fingerprint)
		if err != nil {
			countIdempotent("error")
			response.Error(c, err)
			c.Abort()
			return
		}

		if !acquired {
			switch {
			case existing.Fingerprint != fingerprint:
				countIdempotent("mismatch")
				response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "幂等键已用于不同的请求")
			case !existing.Completed:
				countIdempotent("in_progress")
				response.Error(c, apperrors.ErrRequestInProgress)
			default:
				countIdempotent("replay")
				c.Header(HeaderIdempotentReplay, "true")
				c.Data(existing.StatusCode, existing.ContentType, existing.Body)
			}
			c.Abort()
			return
		}

		countIdempotent("new")
		rec := &responseRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rec
		c.Next()

		// 请求可能已经超时取消，保存结果用独立的ctx
		saveCtx := context.WithoutCancel(ctx)
		status := rec.Status()
		if status >= http.StatusInternalServerError || transientFailure(c) {
			if err := store.Release(saveCtx, scope); err != nil {
				logger.Warn("释放幂等键失败", zap.String("key", key), zap.Error(err))
			}
			return
		}

		err = store.Complete(saveCtx, scope, redis.StoredResponse{
			Fingerprint: fingerprint,
			StatusCode:  status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err != nil {
			logger.Warn("保存幂等响应失败", zap.String("key", key), zap.Error(err))
		}
	}
}

// transientFailure 请求是否以暂时性错误(版本冲突、存储不可用)结束
func transientFailure(c *gin.Context) bool {
	for _, e := range c.Errors {
		if apperrors.IsTransient(e.Err) {
			return true
		}
	}
	return false
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func fingerprintOf(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func countIdempotent(result string) {
	metrics.IncCounterVec(metrics.IdempotentRequestsTotal, map[string]string{"result": result})
}
