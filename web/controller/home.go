package controller

import (
	"github.com/authgate/authgate/web/middleware"
	"github.com/authgate/authgate/web/session"

	"github.com/gin-gonic/gin"
)

// HomeController serves the page only logged-in visitors may see.
type HomeController struct {
	BaseController
}

// NewHomeController creates a new HomeController and initializes its routes.
func NewHomeController(g *gin.RouterGroup) *HomeController {
	a := &HomeController{}
	a.initRouter(g)
	return a
}

func (a *HomeController) initRouter(g *gin.RouterGroup) {
	g.GET("/home", middleware.NoStore(), a.checkLogin, a.index)
}

func (a *HomeController) index(c *gin.Context) {
	claims := session.GetLoginAccount(c)
	html(c, "home.html", "pages.home.title", gin.H{
		"username": claims.Username,
		"email":    claims.Email,
	})
}
