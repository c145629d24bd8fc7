package errors

import (
	"errors"
)

// Kind classifies every failure the auth core can report. The transport maps
// each kind to a status code exactly once.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateEmail
	KindVerificationRequired
	KindInvalidCode
	KindExpiredCode
	KindAlreadyVerified
	KindInvalidCredentials
	KindAccountBlocked
	KindInvalidToken
	KindPasswordReuse
	KindNotFound
	KindDelivery
	KindTooManyRequests
)

var kindNames = map[Kind]string{
	KindInternal:             "Internal",
	KindValidation:           "Validation",
	KindDuplicateEmail:       "DuplicateEmail",
	KindVerificationRequired: "VerificationRequired",
	KindInvalidCode:          "InvalidCode",
	KindExpiredCode:          "ExpiredCode",
	KindAlreadyVerified:      "AlreadyVerified",
	KindInvalidCredentials:   "InvalidCredentials",
	KindAccountBlocked:       "AccountBlocked",
	KindInvalidToken:         "InvalidToken",
	KindPasswordReuse:        "PasswordReuse",
	KindNotFound:             "NotFound",
	KindDelivery:             "Delivery",
	KindTooManyRequests:      "TooManyRequests",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is a client-reportable failure. Message is safe to show to callers;
// Fields carries per-field detail for validation failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports kind equality so that errors.Is(err, ErrInvalidToken) matches
// any InvalidToken error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInternal             = &Error{Kind: KindInternal, Message: "internal server error"}
	ErrValidation           = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrEmailAlreadyInUse    = &Error{Kind: KindDuplicateEmail, Message: "email already in use"}
	ErrVerificationRequired = &Error{Kind: KindVerificationRequired, Message: "email verification required"}
	ErrInvalidCode          = &Error{Kind: KindInvalidCode, Message: "invalid verification code"}
	ErrExpiredCode          = &Error{Kind: KindExpiredCode, Message: "verification code expired"}
	ErrAlreadyVerified      = &Error{Kind: KindAlreadyVerified, Message: "email already verified"}
	ErrInvalidCredentials   = &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrAccountBlocked       = &Error{Kind: KindAccountBlocked, Message: "account is blocked"}
	ErrInvalidToken         = &Error{Kind: KindInvalidToken, Message: "invalid token"}
	ErrPasswordReuse        = &Error{Kind: KindPasswordReuse, Message: "new password must differ from the current password"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "account not found"}
	ErrDelivery             = &Error{Kind: KindDelivery, Message: "failed to send email, please try again"}
	ErrTooManyRequests      = &Error{Kind: KindTooManyRequests, Message: "too many requests, please wait before retrying"}
)

// NewValidation builds a validation error carrying field -> reason pairs.
func NewValidation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: ErrValidation.Message, Fields: fields}
}

// KindOf returns the kind carried by err, or KindInternal if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Public returns the client-facing form of err. Errors without a kind are
// replaced by ErrInternal so wrapped causes never leak.
func Public(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal
}
