package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestInstrumentClientWritesExchanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/plain")
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New()
	InstrumentClient(client, nil, output)

	_, err = client.R().SetFormData(map[string]string{"ping": "1"}).Post(srv.URL + "/ping")
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	text := string(contents)
	require.True(t, strings.HasPrefix(text, "---- REQUEST ----"))
	require.Contains(t, text, "POST "+srv.URL+"/ping")
	require.Contains(t, text, "ping=1")
	require.Contains(t, text, "200 ")
	require.Contains(t, text, "pong")
}

func TestInstrumentClientWithoutOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := resty.New()
	InstrumentClient(client, nil, nil)

	res, err := client.R().Get(srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(http.Header{}))
	require.Equal(t, "A: 1", formatHeaders(http.Header{"A": []string{"1"}}))
}
