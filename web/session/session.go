// Package session binds authenticated accounts to gin sessions and carries
// one-shot flash messages between requests.
package session

import (
	"encoding/gob"
	"errors"
	"net/http"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/database/model"
	"github.com/authgate/authgate/web/cache"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const loginAccount = "LOGIN_ACCOUNT"

// ErrUnavailable reports that the session record behind the request cookie
// could not be read.
var ErrUnavailable = errors.New("session store unavailable")

// AccountClaims is the only account data kept in the session. The password
// hash never leaves the credential store.
type AccountClaims struct {
	Id       int
	Username string
	Email    string
}

func init() {
	gob.Register(AccountClaims{})
	gob.Register([]any{})
}

// ClaimsOf reduces an account to the fields a session may hold.
func ClaimsOf(account *model.Account) AccountClaims {
	return AccountClaims{
		Id:       account.Id,
		Username: account.Username,
		Email:    account.Email,
	}
}

// Login binds account to the current session under a freshly issued id.
// Anything stored before login, flashes included, is dropped.
func Login(c *gin.Context, account *model.Account) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(loginAccount, ClaimsOf(account))
	s.Set(cache.RegenerateKey, true)
	return s.Save()
}

func GetLoginAccount(c *gin.Context) *AccountClaims {
	s := sessions.Default(c)
	if obj := s.Get(loginAccount); obj != nil {
		if claims, ok := obj.(AccountClaims); ok {
			return &claims
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginAccount(c) != nil
}

// CheckStore returns ErrUnavailable when the browser sent a session cookie
// but its record could not be loaded. Such a visitor only looks anonymous.
func CheckStore(c *gin.Context) error {
	if failed, _ := sessions.Default(c).Get(cache.LoadFailedKey).(bool); failed {
		return ErrUnavailable
	}
	return nil
}

// Logout deletes the server-side session and expires the cookie.
func Logout(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		Secure:   config.IsSecureCookie(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.Save()
}

// AddFlash queues a message key for the next page this browser renders.
func AddFlash(c *gin.Context, key string) error {
	s := sessions.Default(c)
	s.AddFlash(key)
	return s.Save()
}

// PopFlash returns the most recent queued message key and clears the queue.
// It returns "" when nothing is queued.
func PopFlash(c *gin.Context) (string, error) {
	s := sessions.Default(c)
	flashes := s.Flashes()
	if len(flashes) == 0 {
		return "", nil
	}
	if err := s.Save(); err != nil {
		return "", err
	}
	key, _ := flashes[len(flashes)-1].(string)
	return key, nil
}
