package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"nextlevel/api/internal/response"
	"nextlevel/api/internal/token"
)

// Context keys set by the gate for downstream handlers.
const (
	CtxPrincipal = "principal"
	CtxRawToken  = "raw_token"
)

// Whitelist is the set of request paths exempt from bearer-token
// admission control: exact entries plus prefix entries ending in "/*".
type Whitelist struct {
	exact    map[string]struct{}
	prefixes []string
}

func NewWhitelist(entries []string) Whitelist {
	wl := Whitelist{exact: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.HasSuffix(entry, "/*") {
			// "/public/*" keeps the trailing slash so "/publicx"
			// cannot match.
			wl.prefixes = append(wl.prefixes, strings.TrimSuffix(entry, "*"))
			continue
		}
		wl.exact[entry] = struct{}{}
	}
	return wl
}

func (w Whitelist) Match(path string) bool {
	if _, ok := w.exact[path]; ok {
		return true
	}
	for _, prefix := range w.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractBearer pulls the token out of an Authorization header value,
// accepting both "Bearer <token>" and a raw token. A bare "Bearer"
// scheme with nothing after it is an empty token, not a credential.
func extractBearer(header string) string {
	fields := strings.Fields(header)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		if fields[0] == "Bearer" {
			return ""
		}
		return fields[0]
	default:
		return fields[1]
	}
}

// Gate is the admission-control middleware for protected routes.
// Whitelisted paths pass through untouched; everything else must carry
// a verifiable bearer token. Every admission failure, including a panic
// inside the checks themselves, becomes a uniform 401 envelope. Panics
// in downstream handlers are not caught here; they belong to Recovery.
func Gate(secret string, whitelist Whitelist, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if admit(c, secret, whitelist, log) {
			c.Next()
		}
	}
}

// admit runs the whitelist, extraction and verification steps and
// reports whether the request may proceed. On failure the 401 envelope
// has already been written.
func admit(c *gin.Context, secret string, whitelist Whitelist, log zerolog.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("error", r).
				Str("path", c.Request.URL.Path).
				Msg("auth gate panic")
			response.AbortFail(c, http.StatusUnauthorized, "Token validation failed")
			ok = false
		}
	}()

	if whitelist.Match(c.Request.URL.Path) {
		return true
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		response.AbortFail(c, http.StatusUnauthorized, "Authorization header missing")
		return false
	}

	raw := extractBearer(header)
	if raw == "" {
		response.AbortFail(c, http.StatusUnauthorized, "Token missing")
		return false
	}

	claims := token.SafeVerify(raw, secret)
	if claims == nil {
		response.AbortFail(c, http.StatusUnauthorized, "Invalid or expired token")
		return false
	}

	c.Set(CtxPrincipal, *claims)
	c.Set(CtxRawToken, raw)
	return true
}

// Principal returns the verified claims the gate attached, or false on
// a route the gate never protected.
func Principal(c *gin.Context) (token.Claims, bool) {
	val, ok := c.Get(CtxPrincipal)
	if !ok {
		return token.Claims{}, false
	}
	claims, ok := val.(token.Claims)
	return claims, ok
}
