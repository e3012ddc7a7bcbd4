package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kaytu-io/fulfillment/pkg/api"
	"github.com/kaytu-io/fulfillment/pkg/httpserver"
	"github.com/labstack/echo/v4"
)

type EchoError struct {
	Message string `json:"message"`
}

type Context struct {
	UserRole api.Role
	UserID   string
}

func (ctx *Context) ToHeaders() map[string]string {
	return map[string]string{
		httpserver.XKaytuUserIDHeader:   ctx.UserID,
		httpserver.XKaytuUserRoleHeader: string(ctx.UserRole),
	}
}

func FromEchoContext(c echo.Context) *Context {
	return &Context{
		UserRole: api.Role(c.Request().Header.Get(httpserver.XKaytuUserRoleHeader)),
		UserID:   c.Request().Header.Get(httpserver.XKaytuUserIDHeader),
	}
}

// DoRequest sends a JSON request and decodes the JSON response into v. It
// returns the response status code alongside any error so callers can tell
// client rejections apart from transport failures.
func DoRequest(method, url string, headers map[string]string, payload []byte, v interface{}) (int, error) {
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	for k, value := range headers {
		req.Header.Add(k, value)
	}
	client := http.Client{
		Timeout: 15 * time.Second,
	}
	res, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, fmt.Errorf("read body: %w", err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		var echoerr EchoError
		if jserr := json.Unmarshal(body, &echoerr); jserr == nil && echoerr.Message != "" {
			return res.StatusCode, fmt.Errorf("%s", echoerr.Message)
		}
		return res.StatusCode, fmt.Errorf("http status: %d", res.StatusCode)
	}

	if v == nil || len(body) == 0 {
		return res.StatusCode, nil
	}
	return res.StatusCode, json.Unmarshal(body, v)
}
