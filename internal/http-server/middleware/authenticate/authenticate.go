package authenticate

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"tenderdesk/internal/lib/api/cont"
	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
)

// New logs every request and stores the caller's bearer token and locale in
// the request context. The token is not checked here; the backend checks it
// when it is forwarded.
func New(log *slog.Logger, locales ...string) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			remote := r.RemoteAddr
			// if the request is coming from a proxy, use the X-Forwarded-For header
			xRemote := r.Header.Get("X-Forwarded-For")
			if xRemote != "" {
				remote = xRemote
			}
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", remote),
				slog.String("request_id", id),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				logger.With(
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				).Info("incoming request")
			}()

			ctx := r.Context()
			if token := bearer(r.Header.Get("Authorization")); token != "" {
				logger = logger.With(sl.Secret("token", token))
				ctx = cont.PutToken(ctx, token)
			}
			if locale := pickLocale(r, locales); locale != "" {
				ctx = cont.PutLocale(ctx, locale)
			}

			ww.Header().Set("X-Request-ID", id)
			next.ServeHTTP(ww, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

// Require rejects requests that carry no bearer token.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cont.GetToken(r.Context()) == "" {
			authFailed(w, r, "Authorization header not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireFor applies Require to the wizard kinds named, read from the
// {kind} route parameter.
func RequireFor(kinds ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		required := Require(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(kinds, chi.URLParam(r, "kind")) {
				required.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// pickLocale prefers an explicit ?locale= over Accept-Language. Only the
// listed locales are accepted; with none listed any value is.
func pickLocale(r *http.Request, locales []string) string {
	candidates := []string{r.URL.Query().Get("locale")}
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(tag, "-")
		candidates = append(candidates, strings.ToLower(base))
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if len(locales) == 0 || slices.Contains(locales, c) {
			return c
		}
	}
	return ""
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
