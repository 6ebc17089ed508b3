// Package errors provides structured error handling for the backend core.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Account errors
	CodeAccountEmailTaken       Code = "ACCOUNT_EMAIL_TAKEN"
	CodeAccountSlugTaken        Code = "ACCOUNT_SLUG_TAKEN"
	CodeAccountNotFound         Code = "ACCOUNT_NOT_FOUND"
	CodeAccountNotActivated     Code = "ACCOUNT_NOT_ACTIVATED"
	CodeAccountEmptyDisplayName Code = "ACCOUNT_EMPTY_DISPLAY_NAME"
	CodeAccountInvalidEmail     Code = "ACCOUNT_INVALID_EMAIL"

	// Credential errors
	CodeAuthWrongPassword Code = "AUTH_WRONG_PASSWORD"
	CodeAuthEmptyPassword Code = "AUTH_EMPTY_PASSWORD"
	CodeAuthUnauthorized  Code = "AUTH_UNAUTHORIZED"

	// Single-use and session token errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"

	// Mail dispatch errors
	CodeMailNotSent Code = "MAIL_NOT_SENT"

	// Social graph errors
	CodeFollowInvalidTarget Code = "FOLLOW_INVALID_TARGET"

	// Post interaction errors
	CodePostEmptyContent     Code = "POST_EMPTY_CONTENT"
	CodePostNotFound         Code = "POST_NOT_FOUND"
	CodeCommentEmptyContent  Code = "COMMENT_EMPTY_CONTENT"
	CodeReactionInvalidKind  Code = "REACTION_INVALID_KIND"
	CodeNotificationBadInput Code = "NOTIFICATION_BAD_INPUT"

	// Event errors
	CodeEventEmptyName     Code = "EVENT_EMPTY_NAME"
	CodeEventInvalidWindow Code = "EVENT_INVALID_WINDOW"
	CodeEventNotFound      Code = "EVENT_NOT_FOUND"

	// Feed errors
	CodeFeedInvalidSortKey Code = "FEED_INVALID_SORT_KEY"
	CodeFeedInvalidPage    Code = "FEED_INVALID_PAGE"

	// Generic request/storage errors
	CodeBadRequest       Code = "BAD_REQUEST"
	CodeNotFound         Code = "NOT_FOUND"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP status codes at the controller
// boundary. Ownership-scoped deletes deliberately report NOT_FOUND so that
// non-owners cannot distinguish "absent" from "not yours".
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - malformed or missing input
	case CodeAccountEmptyDisplayName,
		CodeAccountInvalidEmail,
		CodeAuthEmptyPassword,
		CodeFollowInvalidTarget,
		CodePostEmptyContent,
		CodePostNotFound,
		CodeCommentEmptyContent,
		CodeReactionInvalidKind,
		CodeNotificationBadInput,
		CodeEventEmptyName,
		CodeEventInvalidWindow,
		CodeFeedInvalidSortKey,
		CodeFeedInvalidPage,
		CodeBadRequest:
		return http.StatusBadRequest

	// Unauthorized - caller identity or credential mismatch
	case CodeAuthWrongPassword,
		CodeAuthUnauthorized:
		return http.StatusUnauthorized

	// Not found - resource absent or not visible to the caller
	case CodeAccountNotFound,
		CodeEventNotFound,
		CodeNotFound:
		return http.StatusNotFound

	// Conflict - uniqueness violation or state that disallows the operation
	case CodeAccountEmailTaken,
		CodeAccountSlugTaken,
		CodeAccountNotActivated,
		CodeTokenInvalid:
		return http.StatusConflict

	// Gone - the token existed but its validity window has passed
	case CodeTokenExpired:
		return http.StatusGone

	// Bad gateway - the mail relay refused or timed out; local state is
	// already persisted
	case CodeMailNotSent:
		return http.StatusBadGateway

	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
