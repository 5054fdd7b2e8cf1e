package doi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibdb/src/internal/httpx"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"10.1021/acs.chemrev.8b00803":                  "10.1021/acs.chemrev.8b00803",
		"https://doi.org/10.1021/acs.chemrev.8b00803":  "10.1021/acs.chemrev.8b00803",
		"DOI:10.1000/xyz123":                           "10.1000/xyz123",
		"  http://dx.doi.org/10.1103/PhysRevA.1.1 ":    "10.1103/PhysRevA.1.1",
	}
	for in, want := range cases {
		got, ok := Normalize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "not a doi", "see 10.1/abc", "10.1/", "10.abc/", "10.1000/.."} {
		_, ok := Normalize(bad)
		assert.False(t, ok, bad)
	}
}

func TestNormalize_KeepsTrailingPunctuation(t *testing.T) {
	for _, in := range []string{
		"10.1000/abc;2-#",
		"10.1000/xyz123.",
		"10.1002/(SICI)1097-4571(199806)49:8<693::AID-ASI4>3.0.CO;2-#",
	} {
		got, ok := Normalize("doi:" + in)
		assert.True(t, ok, in)
		assert.Equal(t, in, got)
	}
}

func TestFind_TrimsPunctuationAndStopsAtQuotes(t *testing.T) {
	text := `cite (10.1000/a1), also "10.1000/b2"&more and 10.1000/c3.`
	assert.Equal(t, []string{"10.1000/a1", "10.1000/b2", "10.1000/c3"}, Find(text))
}

func TestMostCommon(t *testing.T) {
	d, ok := MostCommon("10.1/x 10.2/y 10.2/y 10.1/x 10.3/z")
	require.True(t, ok)
	assert.Equal(t, "10.1/x", d, "ties go to the first seen")

	d, ok = MostCommon("10.1/x 10.2/y 10.2/y")
	require.True(t, ok)
	assert.Equal(t, "10.2/y", d)

	_, ok = MostCommon("nothing here")
	assert.False(t, ok)
}

func TestFetchBibTeX(t *testing.T) {
	var gotAccept, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		if r.URL.Path == "/10.1/missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("@article{X, title={T}}\n"))
	}))
	defer srv.Close()

	c := NewClient(httpx.New(time.Second), srv.URL+"/")
	body, err := c.FetchBibTeX(context.Background(), "10.1/abc")
	require.NoError(t, err)
	assert.Equal(t, "@article{X, title={T}}", body)
	assert.Equal(t, "application/x-bibtex", gotAccept)
	assert.Equal(t, "/10.1/abc", gotPath)

	_, err = c.FetchBibTeX(context.Background(), "10.1/missing")
	assert.True(t, httpx.IsNotFound(err))

	_, err = c.FetchBibTeX(context.Background(), "10.1002/(SICI)1097-4571(199806)49:8<693::AID-ASI4>3.0.CO;2-#")
	require.NoError(t, err)
	assert.Equal(t, "/10.1002/(SICI)1097-4571(199806)49:8<693::AID-ASI4>3.0.CO;2-#", gotPath)
}
