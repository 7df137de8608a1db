package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/unrolled/secure"

	"github.com/jonny/sheetbot/internal/domain/model"
)

const HeaderCorrelationID = "X-Correlation-ID"

// SecurityContext derives the per-request security context and echoes its
// correlation id back to the caller.
func SecurityContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := model.NewSecurityContext(ClientIP(r), r.UserAgent(), time.Now())
		w.Header().Set(HeaderCorrelationID, sc.CorrelationID)
		next.ServeHTTP(w, r.WithContext(model.WithSecurityContext(r.Context(), sc)))
	})
}

// SecurityHeaders adds the response hardening headers. The endpoint only
// serves JSON so the content security policy allows nothing.
func SecurityHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'",
		IsDevelopment:         isDevelopment,
	}).Handler
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Content-Type", "X-Signature-Ed25519", "X-Signature-Timestamp"}
)

const corsMaxAge = 86400

// CORS answers preflight requests for the interactions endpoint.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: corsMethods,
		AllowedHeaders: corsHeaders,
		ExposedHeaders: []string{HeaderCorrelationID},
		MaxAge:         corsMaxAge,
	}).Handler
}

// Options serves OPTIONS requests that CORS let through because they are not
// preflights (no Origin or no Access-Control-Request-Method). It still
// advertises the allowed methods and headers.
func Options(allowedOrigins []string) http.HandlerFunc {
	wildcard := slices.Contains(allowedOrigins, "*")
	methods := strings.Join(corsMethods, ", ")
	headers := strings.Join(corsHeaders, ", ")
	return func(w http.ResponseWriter, _ *http.Request) {
		h := w.Header()
		if wildcard {
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
		h.Set("Allow", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}
