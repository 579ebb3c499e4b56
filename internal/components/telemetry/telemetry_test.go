package telemetry

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	tel := NewScopedAPI("outer", NewScopedAPI("inner", rec))

	tel.ReportBroken("thing.do", fmt.Errorf("boom"))
	tel.ReportWarning("thing.warn")
	tel.ReportCount("thing.count", 3)

	broken := rec.Reports(REPORT_BROKEN)
	require.Len(t, broken, 1)
	require.Equal(t, "inner: outer: thing.do", broken[0].ID)
	require.EqualError(t, broken[0].Params[0].(error), "boom")

	warnings := rec.Reports(REPORT_WARNING)
	require.Len(t, warnings, 1)
	require.Equal(t, "inner: outer: thing.warn", warnings[0].ID)

	count, ok := rec.Count("thing.count")
	require.True(t, ok)
	require.Equal(t, int64(3), count)

	_, ok = rec.Count("missing")
	require.False(t, ok)
}

func TestInstrumentResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := &Recorder{}
	client := resty.New()
	InstrumentResty(client, rec)

	_, err := client.R().Get(srv.URL)
	require.NoError(t, err)

	debug := rec.Reports(REPORT_DEBUG)
	require.Len(t, debug, 2)
	require.Equal(t, report_resty_request, debug[0].ID)
	require.Equal(t, report_resty_response, debug[1].ID)
	require.Empty(t, rec.Reports(REPORT_BROKEN))

	srv.Close()
	_, err = client.R().Get(srv.URL)
	require.Error(t, err)
	require.Len(t, rec.Reports(REPORT_BROKEN), 1)
}
