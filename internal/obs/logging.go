package obs

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the service logger. Console output in development,
// JSON everywhere else.
func NewLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// RequestLogger logs one line per request. Bodies, tokens, and credentials
// are never logged; the route field is the matched mux pattern, not the raw
// path, so tokens carried in path segments stay out of the log stream.
func RequestLogger(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		log.Info().
			Str("method", r.Method).
			Str("route", RouteLabel(r)).
			Int("status", sw.code).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}
