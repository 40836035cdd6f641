package http

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bookshelf-app/backend/internal/service"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedValue     = 256
)

// Keys whose values never reach the logs, on either side of the wire.
var redactedKeys = []string{"password", "otp", "token", "secret", "authorization"}

func registerLogging(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			userID := "anonymous"
			if subject, ok := c.Get(contextSubjectKey).(service.Subject); ok {
				userID = subject.UserID.String()
			}

			payload := struct {
				Time      string `json:"time"`
				UserID    string `json:"user_id"`
				LatencyMS int64  `json:"latency_ms"`
				Request   struct {
					Method string      `json:"method"`
					URI    string      `json:"uri"`
					Body   interface{} `json:"body,omitempty"`
				} `json:"request"`
				Response struct {
					Status int         `json:"status"`
					Body   interface{} `json:"body,omitempty"`
					Error  string      `json:"error,omitempty"`
				} `json:"response"`
			}{
				Time:      v.StartTime.Format(time.RFC3339),
				UserID:    userID,
				LatencyMS: v.Latency.Milliseconds(),
			}

			payload.Request.Method = v.Method
			payload.Request.URI = v.URI
			payload.Request.Body = c.Get(requestBodyLogKey)
			payload.Response.Status = v.Status
			payload.Response.Body = c.Get(responseBodyLogKey)
			if v.Error != nil {
				payload.Response.Error = v.Error.Error()
			}

			buf, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if summary := sanitizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
		if summary := sanitizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); summary != nil {
			c.Set(responseBodyLogKey, summary)
		}
	}))
}

// sanitizeBody produces a loggable summary of a JSON body with credential
// material stripped. Non-JSON payloads (multipart uploads) are summarized by
// size only.
func sanitizeBody(body []byte, contentType string) interface{} {
	if len(body) == 0 {
		return nil
	}

	lowered := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(lowered, "multipart/form-data") {
		return map[string]interface{}{"multipart_bytes": len(body)}
	}
	if !strings.HasPrefix(lowered, "application/json") && !json.Valid(body) {
		return map[string]interface{}{"bytes": len(body)}
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return map[string]interface{}{"bytes": len(body)}
	}
	return sanitizeJSON(data, "")
}

func sanitizeJSON(value interface{}, key string) interface{} {
	if isRedactedKey(key) {
		return "redacted"
	}
	switch typed := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, v := range typed {
			out[k] = sanitizeJSON(v, k)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(typed))
		for _, v := range typed {
			out = append(out, sanitizeJSON(v, key))
		}
		return out
	case string:
		if len(typed) > maxLoggedValue {
			return typed[:maxLoggedValue] + "…"
		}
		return typed
	default:
		return value
	}
}

func isRedactedKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, sensitive := range redactedKeys {
		if strings.Contains(lowered, sensitive) {
			return true
		}
	}
	return false
}
