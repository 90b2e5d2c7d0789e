package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

type AccessLogMiddleware struct {
	logger *log.Logger
}

func NewAccessLogMiddleware(logger *log.Logger) *AccessLogMiddleware {
	if logger == nil {
		logger = log.Default()
	}
	return &AccessLogMiddleware{logger: logger}
}

// Middleware assigns a request id when the caller sent none and logs one line
// per request once the handler chain has finished.
func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
			c.Request().Header.Set(HeaderRequestID, rid)
		}
		c.Set(HeaderRequestID, rid)

		err := c.Next()

		actorID := "-"
		if actor, ok := ActorFromCtx(c); ok {
			actorID = actor.ID.String()
		}

		if m != nil && m.logger != nil {
			m.logger.Printf(
				"[HTTP] access rid=%s ip=%s method=%s path=%s status=%d latency=%s actor=%s req_bytes=%d resp_bytes=%d ua=%q",
				rid,
				c.IP(),
				c.Method(),
				c.OriginalURL(),
				c.Response().StatusCode(),
				time.Since(start),
				actorID,
				c.Request().Header.ContentLength(),
				len(c.Response().Body()),
				c.Get("User-Agent"),
			)
		}

		return err
	}
}
