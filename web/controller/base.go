// Package controller provides the HTTP handlers of the authgate web app:
// the login and signup forms, the gated home page and logout.
package controller

import (
	"net/http"

	"github.com/authgate/authgate/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides common functionality for all controllers, including authentication checks.
type BaseController struct{}

// checkLogin sends anonymous visitors back to the login page. A session that
// could not be read answers 503 instead.
func (a *BaseController) checkLogin(c *gin.Context) {
	if err := session.CheckStore(c); err != nil {
		renderUnavailable(c, err)
		return
	}
	if !session.IsLogin(c) {
		c.Redirect(http.StatusTemporaryRedirect, "/")
		c.Abort()
	} else {
		c.Next()
	}
}
