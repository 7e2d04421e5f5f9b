// Package common holds small error helpers shared across authgate packages.
package common

import (
	"errors"
	"fmt"

	"github.com/authgate/authgate/logger"
)

func NewError(a ...any) error {
	msg := fmt.Sprint(a...)
	return errors.New(msg)
}

// Combine joins the non-nil errors. It returns nil when all of them are nil.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover must be deferred directly. It logs the recovered panic under msg.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, " panic: ", panicErr)
		}
	}
	return panicErr
}
