package httpx

import (
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNew_SetsUserAgentAndTimeout(t *testing.T) {
    var gotUA string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotUA = r.Header.Get("User-Agent")
        _, _ = w.Write([]byte("ok"))
    }))
    defer srv.Close()

    c := New(5 * time.Second)
    require.NotNil(t, c.Client)
    assert.Equal(t, 5*time.Second, c.GetClient().Timeout)

    resp, err := c.R().Get(srv.URL)
    require.NoError(t, err)
    assert.NoError(t, CheckStatus("test", resp))
    assert.Equal(t, ChromeUA, gotUA)
}

func TestNew_Independence(t *testing.T) {
    assert.NotSame(t, New(0).Client, New(0).Client)
}

func TestCheckStatus_NotFound(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "missing", http.StatusNotFound)
    }))
    defer srv.Close()

    resp, err := New(time.Second).R().Get(srv.URL)
    require.NoError(t, err)
    err = CheckStatus("svc", resp)
    require.Error(t, err)
    assert.True(t, IsNotFound(err))
    assert.Contains(t, err.Error(), "svc: http 404")
    assert.False(t, IsNotFound(assert.AnError))
    assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
    assert.False(t, IsNotFound(fmt.Errorf("lookup: %w", &StatusError{Code: http.StatusBadGateway})))
}

func TestCheckBody_UsesSuppliedBody(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "gone away", http.StatusGone)
    }))
    defer srv.Close()

    resp, err := New(time.Second).R().SetDoNotParseResponse(true).Get(srv.URL)
    require.NoError(t, err)
    defer resp.RawBody().Close()
    err = CheckBody("svc", resp, []byte("gone away\n"))
    var se *StatusError
    require.ErrorAs(t, err, &se)
    assert.Equal(t, http.StatusGone, se.Code)
    assert.Equal(t, "gone away", se.Body)
    assert.False(t, IsNotFound(err))
}
