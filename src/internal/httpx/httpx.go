package httpx

import (
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/go-resty/resty/v2"
)

// ChromeUA is a consistent, modern desktop Chrome User-Agent for all outbound HTTP.
const ChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Client wraps a resty.Client preconfigured with the shared User-Agent and a
// request timeout. Embedding exposes the full resty API.
type Client struct {
    *resty.Client
}

// New returns a Client with the given timeout; zero means no timeout.
func New(timeout time.Duration) *Client {
    c := resty.New().
        SetHeader("User-Agent", ChromeUA).
        SetTimeout(timeout)
    return &Client{Client: c}
}

// StatusError describes a non-2xx response.
type StatusError struct {
    Service string
    Code    int
    Body    string
}

func (e *StatusError) Error() string {
    return fmt.Sprintf("%s: http %d: %s", e.Service, e.Code, e.Body)
}

// CheckStatus returns a *StatusError for non-2xx responses. The body excerpt is
// capped at 4 KiB.
func CheckStatus(service string, resp *resty.Response) error {
    return CheckBody(service, resp, resp.Body())
}

// CheckBody is CheckStatus for responses read with SetDoNotParseResponse,
// where the caller supplies the body it read.
func CheckBody(service string, resp *resty.Response, body []byte) error {
    if resp.IsSuccess() {
        return nil
    }
    if len(body) > 4096 {
        body = body[:4096]
    }
    return &StatusError{Service: service, Code: resp.StatusCode(), Body: strings.TrimSpace(string(body))}
}

// IsNotFound reports whether err wraps a 404 StatusError.
func IsNotFound(err error) bool {
    var se *StatusError
    return errors.As(err, &se) && se.Code == http.StatusNotFound
}
