package controller

import (
	"net/http"

	"github.com/authgate/authgate/logger"
	"github.com/authgate/authgate/web/entity"
	"github.com/authgate/authgate/web/service"
	"github.com/authgate/authgate/web/session"

	"github.com/gin-gonic/gin"
)

const (
	msgWrongEmailOrPassword = "pages.login.toasts.wrongEmailOrPassword"
	msgEmptyFields          = "pages.login.toasts.emptyFields"
)

// IndexController handles the login form, login submission and logout.
type IndexController struct {
	BaseController

	authService service.AuthService
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/logout", a.logout)

	g.POST("/login", a.login)
}

// index shows the login form. A logged-in visitor sees it too.
func (a *IndexController) index(c *gin.Context) {
	renderForm(c, "login.html", "pages.login.title")
}

func (a *IndexController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithFlash(c, "/", msgEmptyFields)
		return
	}
	email := form.Identifier()
	if email == "" || form.Password == "" {
		redirectWithFlash(c, "/", msgEmptyFields)
		return
	}

	outcome, account, err := a.authService.Authenticate(c.Request.Context(), email, form.Password)
	switch outcome {
	case service.Success:
		if err := session.Login(c, account); err != nil {
			renderUnavailable(c, err)
			return
		}
		logger.Infof("account %d logged in, IP: %s", account.Id, getRemoteIp(c))
		c.Redirect(http.StatusFound, "/home")
	case service.NoSuchUser, service.BadPassword:
		logger.Warningf("failed login for %q, IP: %s", email, getRemoteIp(c))
		redirectWithFlash(c, "/", msgWrongEmailOrPassword)
	default:
		renderUnavailable(c, err)
	}
}

func (a *IndexController) logout(c *gin.Context) {
	claims := session.GetLoginAccount(c)
	if err := session.Logout(c); err != nil {
		renderUnavailable(c, err)
		return
	}
	if claims != nil {
		logger.Infof("account %d logged out", claims.Id)
	}
	c.Redirect(http.StatusTemporaryRedirect, "/")
}
