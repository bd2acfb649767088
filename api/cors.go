package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// OriginPolicy decides which browser origins may call the API or open a websocket
type OriginPolicy struct {
	frontendURL string
	allowed     map[string]struct{}
	allowAll    bool
}

// NewOriginPolicy builds a policy from the frontend url and an explicit allow list.
// An allow list containing "*" admits every origin. With an empty allow list only the
// frontend url and localhost are admitted.
func NewOriginPolicy(frontendURL string, allowed []string) *OriginPolicy {
	p := &OriginPolicy{
		frontendURL: strings.TrimSuffix(strings.TrimSpace(frontendURL), "/"),
		allowed:     make(map[string]struct{}, len(allowed)),
	}
	for _, origin := range allowed {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if origin == "*" {
			p.allowAll = true
			continue
		}
		if origin != "" {
			p.allowed[origin] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether origin may connect. Requests without an Origin header are
// not cross-site and always pass.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	clean := strings.TrimSuffix(origin, "/")
	if u, err := url.Parse(clean); err == nil {
		if host := u.Hostname(); host == "localhost" || host == "127.0.0.1" {
			return true
		}
	}
	if p.allowAll || clean == p.frontendURL {
		return true
	}
	if _, ok := p.allowed[clean]; ok {
		return true
	}

	zap.S().Warnw("blocked origin", "origin", origin, "frontendURL", p.frontendURL)
	return false
}

// CheckRequest adapts the policy to websocket.Upgrader.CheckOrigin
func (p *OriginPolicy) CheckRequest(r *http.Request) bool {
	return p.Allowed(r.Header.Get("Origin"))
}

// CORS returns the cors middleware for the policy
func CORS(p *OriginPolicy) *cors.Cors {
	return cors.New(cors.Options{
		AllowOriginFunc:  p.Allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
}
