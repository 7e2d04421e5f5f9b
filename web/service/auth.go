package service

import (
	"context"
	"sync"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/database/model"
	"github.com/authgate/authgate/logger"
	"github.com/authgate/authgate/util/crypto"
)

// Outcome is the result of one login attempt.
type Outcome int

const (
	Success Outcome = iota
	NoSuchUser
	BadPassword
	TransientError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NoSuchUser:
		return "no such user"
	case BadPassword:
		return "bad password"
	case TransientError:
		return "transient error"
	default:
		return "unknown"
	}
}

// IsAuthFailure reports the outcomes that must look identical to the client.
func (o Outcome) IsAuthFailure() bool {
	return o == NoSuchUser || o == BadPassword
}

// AuthService verifies submitted credentials against the credential store.
type AuthService struct {
	accountService AccountService
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming runs one bcrypt comparison so that an unknown email costs
// about as much as a wrong password.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		h, err := crypto.HashPassword("authgate-timing-guard", config.GetBcryptCost())
		if err != nil {
			logger.Warning("timing guard hash failed: ", err)
			return
		}
		dummyHash = h
	})
	if dummyHash != "" {
		_, _ = crypto.CheckPassword(dummyHash, password)
	}
}

// Authenticate looks up email and checks password. The account is non-nil
// only for Success; err is non-nil only for TransientError.
func (s *AuthService) Authenticate(ctx context.Context, email string, password string) (Outcome, *model.Account, error) {
	account, err := s.accountService.FindByEmail(ctx, email)
	if err != nil {
		return TransientError, nil, transient("find account", err)
	}
	if account == nil {
		equalizeTiming(password)
		return NoSuchUser, nil, nil
	}

	ok, err := crypto.CheckPassword(account.Password, password)
	if err != nil {
		logger.Errorf("stored hash for account %d is unusable: %v", account.Id, err)
		return TransientError, nil, transient("verify password", err)
	}
	if !ok {
		return BadPassword, nil, nil
	}
	return Success, account, nil
}
