package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetAccess writes the access token cookie. A non-persistent cookie carries no
// Max-Age and is dropped when the browser session ends.
func (m *Manager) SetAccess(c *gin.Context, access string, exp time.Time, persistent bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	maxAge := 0
	if persistent {
		maxAge = maxAgeFrom(exp)
	}
	c.SetCookie("access_token", access, maxAge, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
