package server

import (
	"context"
	"fmt"
	"net/http"
	"scrapesync-backend/internal/store"
	"time"
)

type sessionKeyType int

var sessionKey sessionKeyType

func sessionFrom(ctx context.Context) *store.Session {
	sess, _ := ctx.Value(sessionKey).(*store.Session)
	return sess
}

// withSession opens a unit of work bound to the request context and
// releases it once next has written the response.
func (s Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, release, err := s.store.Begin(r.Context())
		if err != nil {
			s.tel.ReportBroken(report_server_session, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer func() {
			err := release()
			if err != nil {
				s.tel.ReportWarning(report_server_session, fmt.Errorf("release: %w", err))
			}
		}()

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s Server) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.tel.ReportDebug(
			report_server_request,
			r.Method,
			r.URL.Path,
			wrapped.status,
			time.Since(start).String(),
		)
	})
}

func (s Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}
			s.tel.ReportBroken(report_server_panic, fmt.Errorf("%v", recovered), r.Method, r.URL.Path)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
