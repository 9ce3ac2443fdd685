package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateActivityID indicates an activity with the same id already exists.
	ErrDuplicateActivityID = errors.New("activity id already exists")
	// ErrActivityNotFound indicates the targeted activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrUserNotFound indicates the targeted user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for an unknown username or a wrong secret alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrExternalIDTaken indicates the student or staff number is already registered.
	ErrExternalIDTaken = errors.New("external id already registered")
	// ErrStorageUnavailable wraps connectivity failures of the record store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// asValidationError converts validator failures into a ValidationError naming the first offending field.
func asValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	first := validationErrors[0]
	return &ValidationError{
		Field:   first.Field(),
		Message: validationMessage(first),
		Err:     err,
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "ddmmyyyy":
		return "must be a valid date in DD-MM-YYYY format"
	case "eqfield":
		return "does not match"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// classifyStorageError marks connectivity failures with ErrStorageUnavailable and leaves other errors untouched.
func classifyStorageError(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
