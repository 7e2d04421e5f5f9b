package service

import (
	"context"
	"errors"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/database"
	"github.com/authgate/authgate/database/model"
	"github.com/authgate/authgate/logger"
	"github.com/authgate/authgate/util/common"
	"github.com/authgate/authgate/util/crypto"
	"github.com/authgate/authgate/web/entity"

	"github.com/go-playground/validator/v10"
)

// Message keys for signup validation failures.
const (
	MsgFieldsRequired   = "pages.signup.toasts.fieldsRequired"
	MsgInvalidEmail     = "pages.signup.toasts.invalidEmail"
	MsgPasswordMismatch = "pages.signup.toasts.passwordMismatch"
	MsgPasswordTooLong  = "pages.signup.toasts.passwordTooLong"
)

var errDatabaseNotInitialized = common.NewError("database not initialized")

var validate = validator.New()

// AccountService reads and creates rows of the credential store.
type AccountService struct{}

// FindByEmail returns the account with exactly this email, or (nil, nil)
// when there is none.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	db := database.GetDB()
	if db == nil {
		return nil, errDatabaseNotInitialized
	}

	account := &model.Account{}
	err := db.WithContext(ctx).
		Model(model.Account{}).
		Where("email = ?", email).
		First(account).
		Error
	if database.IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return account, nil
}

// Insert appends an account and returns it with its generated id. A second
// account for the same email fails with ErrConflict.
func (s *AccountService) Insert(ctx context.Context, username, email, phone, passwordHash string) (*model.Account, error) {
	db := database.GetDB()
	if db == nil {
		return nil, errDatabaseNotInitialized
	}

	account := &model.Account{
		Username: username,
		Email:    email,
		Phone:    phone,
		Password: passwordHash,
	}
	err := db.WithContext(ctx).Create(account).Error
	if database.IsDuplicate(err) {
		return nil, ErrConflict
	} else if err != nil {
		return nil, err
	}
	return account, nil
}

// Register validates a signup form, hashes the password and stores the
// account. Errors wrap ErrValidation, ErrConflict or ErrTransient.
func (s *AccountService) Register(ctx context.Context, form entity.SignupForm) (*model.Account, error) {
	form = form.Normalize()

	if form.Email == "" || form.Password == "" {
		return nil, newValidationError(MsgFieldsRequired)
	}
	if err := validate.Var(form.Email, "email"); err != nil {
		return nil, newValidationError(MsgInvalidEmail)
	}
	if form.Password != form.ConfirmPassword {
		return nil, newValidationError(MsgPasswordMismatch)
	}

	existing, err := s.FindByEmail(ctx, form.Email)
	if err != nil {
		return nil, transient("find account", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}

	hash, err := crypto.HashPassword(form.Password, config.GetBcryptCost())
	if errors.Is(err, crypto.ErrPasswordTooLong) {
		return nil, newValidationError(MsgPasswordTooLong)
	} else if err != nil {
		return nil, transient("hash password", err)
	}

	account, err := s.Insert(ctx, form.Username, form.Email, form.Phone, hash)
	if errors.Is(err, ErrConflict) {
		// lost a race with a concurrent signup for the same email
		logger.Infof("signup for %s rejected by unique index", form.Email)
		return nil, ErrConflict
	} else if err != nil {
		return nil, transient("insert account", err)
	}
	return account, nil
}
