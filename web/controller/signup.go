package controller

import (
	"errors"
	"net/http"

	"github.com/authgate/authgate/logger"
	"github.com/authgate/authgate/web/entity"
	"github.com/authgate/authgate/web/service"
	"github.com/authgate/authgate/web/session"

	"github.com/gin-gonic/gin"
)

const msgEmailTaken = "pages.signup.toasts.emailTaken"

// SignupController serves the registration form.
type SignupController struct {
	accountService service.AccountService
}

// NewSignupController creates a new SignupController and initializes its routes.
func NewSignupController(g *gin.RouterGroup) *SignupController {
	a := &SignupController{}
	a.initRouter(g)
	return a
}

func (a *SignupController) initRouter(g *gin.RouterGroup) {
	g.GET("/signup", a.index)
	g.POST("/signup", a.signup)
}

func (a *SignupController) index(c *gin.Context) {
	renderForm(c, "signup.html", "pages.signup.title")
}

func (a *SignupController) signup(c *gin.Context) {
	var form entity.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithFlash(c, "/signup", service.MsgFieldsRequired)
		return
	}

	account, err := a.accountService.Register(c.Request.Context(), form)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithFlash(c, "/signup", verr.Key)
		return
	case errors.Is(err, service.ErrConflict):
		redirectWithFlash(c, "/", msgEmailTaken)
		return
	case err != nil:
		renderUnavailable(c, err)
		return
	}

	if err := session.Login(c, account); err != nil {
		renderUnavailable(c, err)
		return
	}
	logger.Infof("account %d signed up, IP: %s", account.Id, getRemoteIp(c))
	c.Redirect(http.StatusFound, "/home")
}
