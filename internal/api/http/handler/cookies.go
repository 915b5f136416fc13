package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vidtube-accounts/internal/api/http/middleware"
	"github.com/dtroode/vidtube-accounts/internal/model"
)

// RefreshTokenCookie is the cookie the refresh token is delivered in.
const RefreshTokenCookie = "refreshToken"

// CookieConfig holds the attributes of the credential cookies.
type CookieConfig struct {
	Secure     bool
	Domain     string
	Path       string
	SameSite   http.SameSite
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Cookies writes and expires the credential cookies.
type Cookies struct {
	cfg CookieConfig
}

func NewCookies(cfg CookieConfig) *Cookies {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Cookies{cfg: cfg}
}

// Set writes both tokens as HttpOnly cookies.
func (k *Cookies) Set(c *gin.Context, pair model.CredentialPair) {
	k.write(c, middleware.AccessTokenCookie, pair.AccessToken, int(k.cfg.AccessTTL.Seconds()))
	k.write(c, RefreshTokenCookie, pair.RefreshToken, int(k.cfg.RefreshTTL.Seconds()))
}

// Clear expires both cookies.
func (k *Cookies) Clear(c *gin.Context) {
	k.write(c, middleware.AccessTokenCookie, "", -1)
	k.write(c, RefreshTokenCookie, "", -1)
}

func (k *Cookies) write(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(k.cfg.SameSite)
	c.SetCookie(name, value, maxAge, k.cfg.Path, k.cfg.Domain, k.cfg.Secure, true)
}
