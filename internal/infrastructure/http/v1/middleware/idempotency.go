package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore is implemented by postgres.IdempotencyStore.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key string) error
}

// bodyRecorder keeps a copy of the response body for replay.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a POST is retried with
// the same Idempotency-Key. 2xx and 4xx responses are stored; a 5xx
// releases the key so the retry runs again.
func Idempotency(store IdempotencyStore, maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("could not read request body"))
			c.Abort()
			return
		}
		if int64(len(body)) > maxBodyBytes {
			appErr := apperror.NewValidation("request body too large").WithDetail("maxBytes", maxBodyBytes)
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)

		operation := c.Request.Method + " " + c.Request.URL.Path
		replay, err := store.AcquireKey(ctx, key, appctx.Actor(ctx), operation, hex.EncodeToString(hash[:]))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()
		renderError(c)

		status := rec.Status()
		contentType := rec.Header().Get("Content-Type")
		switch {
		case status >= 500:
			err = store.ReleaseKey(ctx, key)
		case status >= 400:
			err = store.FailKey(ctx, key, status, contentType, rec.body.Bytes())
		default:
			err = store.CompleteKey(ctx, key, status, contentType, rec.body.Bytes())
		}
		if err != nil {
			logger.Warn(ctx, "idempotency key not recorded", "key", key, "error", err)
		}
	}
}
