package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour

	// inFlightTTL bounds how long a crashed request can block its key.
	inFlightTTL    = time.Minute
	inFlightMarker = "in-flight"
)

var errRequestInFlight = errors.New("request with this idempotency key is in progress")

// storedResponse is the replayable part of a completed POST.
type storedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// recordingWriter tees the response body so it can be stored.
type recordingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key on POST. Keys are scoped per user and path, so it must run
// after AuthMiddleware. A key claimed by a request still running answers
// 409 IDEMPOTENCY_IN_PROGRESS. 5xx responses release the key for a retry.
// When Redis is unreachable requests run unguarded.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyStoreKey(UserID(c), c.Request.URL.Path, key)

		claimed, err := redisClient.SetNX(ctx, storeKey, inFlightMarker, inFlightTTL).Result()
		if err != nil {
			c.Next()
			return
		}

		if !claimed {
			stored, err := loadResponse(ctx, redisClient, storeKey)
			switch {
			case errors.Is(err, errRequestInFlight):
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": err.Error(),
					"code":  "IDEMPOTENCY_IN_PROGRESS",
				})
			case err != nil:
				// Expired between claim and read, or unreadable: run unguarded.
				c.Next()
			default:
				c.Data(stored.StatusCode, stored.ContentType, stored.Body)
				c.Abort()
			}
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// The request context may already be past its deadline.
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			_ = redisClient.Del(writeCtx, storeKey).Err()
			return
		}

		_ = saveResponse(writeCtx, redisClient, storeKey, &storedResponse{
			StatusCode:  status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
	}
}

func idempotencyStoreKey(userID, path, key string) string {
	return "idempotency:" + userID + ":" + path + ":" + key
}

func loadResponse(ctx context.Context, client *redis.Client, key string) (*storedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	if string(data) == inFlightMarker {
		return nil, errRequestInFlight
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func saveResponse(ctx context.Context, client *redis.Client, key string, response *storedResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
