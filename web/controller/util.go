package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/logger"
	"github.com/authgate/authgate/web/locale"
	"github.com/authgate/authgate/web/middleware"
	"github.com/authgate/authgate/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// html renders an HTML template with the provided data and title.
func html(c *gin.Context, name string, title string, data gin.H) {
	htmlStatus(c, http.StatusOK, name, title, data)
}

func htmlStatus(c *gin.Context, status int, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["lang"] = locale.Lang(c)
	data["request_id"] = c.GetString(middleware.RequestIDKey)
	c.HTML(status, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver":  config.GetVersion(),
		"app_name": config.GetName(),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

// renderUnavailable answers 503 when the store, the session backend or the
// hasher failed. No credential outcome is shown.
func renderUnavailable(c *gin.Context, err error) {
	logger.Errorf("request %s %s failed [%s]: %v",
		c.Request.Method, c.Request.URL.Path, c.GetString(middleware.RequestIDKey), err)
	htmlStatus(c, http.StatusServiceUnavailable, "unavailable.html", "pages.unavailable.title", nil)
	c.Abort()
}

// NotFound renders the 404 page for unknown routes.
func NotFound(c *gin.Context) {
	htmlStatus(c, http.StatusNotFound, "notfound.html", "pages.notFound.title", nil)
}

// redirectWithFlash stores a one-shot message key and sends the browser to location.
func redirectWithFlash(c *gin.Context, location string, key string) {
	if err := session.AddFlash(c, key); err != nil {
		renderUnavailable(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

// renderForm shows a form page along with the pending flash message, if any.
func renderForm(c *gin.Context, name string, title string) {
	flash, err := session.PopFlash(c)
	if err != nil {
		renderUnavailable(c, err)
		return
	}
	html(c, name, title, gin.H{"flash": flash})
}
