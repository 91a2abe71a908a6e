package gate

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/glowcart-dev/glowcart/internal/session"
)

const (
	// NoticeCookie carries a one-shot user-visible notice across the
	// redirect. The frontend reads and clears it.
	NoticeCookie = "glowcart_notice"
	// LoginPromptParam asks the landing page to open the login prompt.
	LoginPromptParam = "login"

	loginRequiredNotice = "Please log in to continue"
)

// SourceFunc resolves the session for a request. Gates never write through
// it; they only read and redirect.
type SourceFunc func(c *gin.Context) session.Session

// Gate wraps a route subtree with a Policy.
type Gate struct {
	source SourceFunc
	policy Policy
	logger zerolog.Logger
}

// RequireLogin builds the user-level gate: on a missing session it sets a
// transient notice, requests the login prompt and redirects home. The
// wrapped handlers never run in that pass.
func RequireLogin(source SourceFunc, logger zerolog.Logger) *Gate {
	return &Gate{
		source: source,
		policy: Policy{RequireUser: true, NotifyOnDeny: true},
		logger: logger,
	}
}

// ByRole builds the role-level gate: a silent redirect with no notice and
// no login prompt, evaluated fresh on every request.
func ByRole(source SourceFunc, requireStaff, requireUser bool, logger zerolog.Logger) *Gate {
	return &Gate{
		source: source,
		policy: Policy{RequireUser: requireUser, RequireStaff: requireStaff},
		logger: logger,
	}
}

// Middleware evaluates the gate on each request.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := g.source(c)
		decision := Decide(g.policy, sess)
		if decision.Allow {
			c.Next()
			return
		}

		g.logger.Debug().
			Str("path", c.Request.URL.Path).
			Int("reason", int(decision.Reason)).
			Str("redirect_to", decision.RedirectTo).
			Msg("Route gate denied request")

		target := decision.RedirectTo
		if g.policy.NotifyOnDeny && decision.Reason == ReasonNotLoggedIn {
			setNotice(c, loginRequiredNotice)
			target = withLoginPrompt(target)
		}

		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

func setNotice(c *gin.Context, notice string) {
	c.SetCookie(NoticeCookie, url.QueryEscape(notice), 30, "/", "", false, false)
}

func withLoginPrompt(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(LoginPromptParam, "1")
	u.RawQuery = q.Encode()
	return u.String()
}
