package domain

import (
	"errors"
	"fmt"
)

// ErrKind is the coarse category the transport layer maps to a status code.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"
	KindAuth           ErrKind = "auth"
	KindForbidden      ErrKind = "forbidden"
	KindNotFound       ErrKind = "not_found"
	KindConflict       ErrKind = "conflict"
	KindMethod         ErrKind = "method_not_allowed"
	KindRateLimited    ErrKind = "rate_limited"
	KindInfrastructure ErrKind = "infrastructure"
	KindInternal       ErrKind = "internal"
)

// Error carries a stable Code for clients next to an optional Cause that is
// only ever logged. Message must be safe to show.
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	if e.Cause == nil {
		return s
	}
	return s + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// With attaches key/value pairs to Meta. A trailing odd key is dropped.
func (e *Error) With(kv ...string) *Error {
	if len(kv) < 2 {
		return e
	}
	if e.Meta == nil {
		e.Meta = make(map[string]string, len(kv)/2)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Meta[kv[i]] = kv[i+1]
	}
	return e
}

func New(kind ErrKind, code, msg string) *Error {
	return Wrap(kind, code, msg, nil)
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func asError(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}

// Is reports whether any error in the chain is a domain error with code.
func Is(err error, code string) bool {
	de, ok := asError(err)
	return ok && de.Code == code
}

// KindOf returns the kind of a domain error, or "" for foreign errors.
func KindOf(err error) ErrKind {
	if de, ok := asError(err); ok {
		return de.Kind
	}
	return ""
}

/* ==== request input ==== */

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "request body is not valid JSON", cause)
}

func ErrMissingField(field string) *Error {
	return New(KindValidation, "missing_field", "a required field is missing").With("field", field)
}

func ErrInvalidField(field, reason string) *Error {
	return New(KindValidation, "invalid_field", "invalid field").With("field", field, "reason", reason)
}

func ErrFileTooLarge(limit string) *Error {
	return New(KindValidation, "file_too_large", "attachment exceeds the upload limit").With("limit", limit)
}

func ErrMethodNotAllowed(method string) *Error {
	return New(KindMethod, "method_not_allowed", "method not allowed on this route").With("method", method)
}

func ErrRateLimited(scope string) *Error {
	return New(KindRateLimited, "rate_limited", "too many requests, slow down").With("scope", scope)
}

/* ==== identities and sessions ==== */

// ErrInvalidCredentials is returned for unknown email and wrong password alike.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, "invalid_credentials", "email or password is incorrect")
}

func ErrWeakPassword(reason string) *Error {
	return New(KindValidation, "weak_password", "password is too weak").With("reason", reason)
}

func ErrUnauthenticated() *Error {
	return New(KindAuth, "unauthenticated", "sign in to continue")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "access token rejected")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "access token expired")
}

func ErrRefreshTokenInvalid() *Error {
	return New(KindAuth, "refresh_token_invalid", "session is no longer valid")
}

func ErrIdentityNotFound() *Error {
	return New(KindNotFound, "identity_not_found", "identity not found")
}

func ErrEmailAlreadyExists() *Error {
	return New(KindConflict, "email_already_exists", "an account with this email exists")
}

/* ==== roles and profiles ==== */

func ErrForbidden() *Error {
	return New(KindForbidden, "forbidden", "not allowed")
}

func ErrInsufficientRole(required string) *Error {
	return New(KindForbidden, "insufficient_role", "this action needs a different role").With("required", required)
}

func ErrInvalidRole(role string) *Error {
	return New(KindValidation, "invalid_role", "unknown role").With("role", role)
}

// ErrCannotAffectSelf stops an admin from changing their own role.
func ErrCannotAffectSelf() *Error {
	return New(KindForbidden, "cannot_affect_self", "admins cannot change their own role")
}

func ErrLastAdminProtected() *Error {
	return New(KindConflict, "last_admin_protected", "at least one admin must remain")
}

func ErrProfileNotFound() *Error {
	return New(KindNotFound, "profile_not_found", "profile not found")
}

func ErrProfileAlreadyExists() *Error {
	return New(KindConflict, "profile_already_exists", "signup already completed")
}

func ErrNotificationNotFound() *Error {
	return New(KindNotFound, "notification_not_found", "notification not found")
}

/* ==== tenders and proposals ==== */

func ErrTenderNotFound() *Error {
	return New(KindNotFound, "tender_not_found", "tender not found")
}

func ErrTenderNotOpen(status string) *Error {
	return New(KindConflict, "tender_not_open", "tender is not accepting proposals").With("status", status)
}

func ErrDeadlinePassed() *Error {
	return New(KindConflict, "deadline_passed", "submission deadline has passed")
}

func ErrInvalidTransition(from, to string) *Error {
	return New(KindConflict, "invalid_transition", "status change not allowed").With("from", from, "to", to)
}

func ErrProposalNotFound() *Error {
	return New(KindNotFound, "proposal_not_found", "proposal not found")
}

func ErrProposalAlreadyExists() *Error {
	return New(KindConflict, "proposal_already_exists", "an active proposal already exists for this tender")
}

/* ==== infrastructure ==== */

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "redis_unavailable", "session store unavailable", cause)
}

func ErrStorageUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "storage_unavailable", "object storage unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "could not hash password", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "could not sign token", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "could not read randomness", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
