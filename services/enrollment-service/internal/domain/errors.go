package domain

import (
	"errors"
	"fmt"
)

// Классы ошибок. Конкретные ошибки оборачивают один из них через %w,
// транспорт проверяет класс через errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrAuthorization       = errors.New("authorization error")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrPaymentVerification = errors.New("payment verification error")
	ErrTransientStorage    = errors.New("transient storage error")
)

var (
	ErrCourseNotFound    = fmt.Errorf("%w: course not found", ErrNotFound)
	ErrLessonNotFound    = fmt.Errorf("%w: lesson not found", ErrNotFound)
	ErrSessionNotFound   = fmt.Errorf("%w: checkout session not found", ErrNotFound)
	ErrAlreadyEnrolled   = fmt.Errorf("%w: already enrolled", ErrConflict)
	ErrNotEnrolled       = fmt.Errorf("%w: not enrolled", ErrAuthorization)
	ErrSessionOwner      = fmt.Errorf("%w: checkout session belongs to another user", ErrAuthorization)
	ErrPremiumRequired   = fmt.Errorf("%w: premium subscription required", ErrAuthorization)
	ErrCourseMismatch    = fmt.Errorf("%w: checkout session is for another course", ErrValidation)
	ErrCourseNotFree     = fmt.Errorf("%w: course requires payment", ErrValidation)
	ErrCourseIsFree      = fmt.Errorf("%w: course is free, enroll directly", ErrValidation)
	ErrSessionClosed     = fmt.Errorf("%w: checkout session is no longer open", ErrConflict)
	ErrBadSignature      = fmt.Errorf("%w: invalid webhook signature", ErrPaymentVerification)
	ErrPaymentPending    = fmt.Errorf("%w: payment not confirmed yet, retry shortly", ErrPaymentVerification)
	ErrSessionExpired    = fmt.Errorf("%w: checkout session expired", ErrPaymentVerification)
	ErrMalformedMetadata = fmt.Errorf("%w: event metadata is missing user or course", ErrValidation)
)

// Transient помечает ошибку хранилища как повторяемую.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransientStorage, err)
}
