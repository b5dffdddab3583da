package taskguard

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes exposed to API clients alongside the HTTP status. They are
// stable identifiers; messages may change.
const (
	TextCodeTokenMissing     = "TOKEN_MISSING"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeTokenSignature   = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeOwnership        = "OWNERSHIP_REQUIRED"
	TextCodeTooManyAttempts  = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeClaimsMapping    = "CLAIMS_MAPPING_ERROR"
	TextCodeIdentityNotFound = "IDENTITY_NOT_FOUND"
)

// ErrTokenMissing is returned when a protected route receives no
// Authorization header.
var ErrTokenMissing = errors.New("missing authorization token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when the raw token does not have the
// header.payload.signature structure or cannot be decoded.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignatureInvalid is returned when the recomputed signature
// does not match. A structurally valid token signed with a different
// key always fails closed with this error.
var ErrTokenSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when exp is in the past beyond the clock
// skew leeway.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword covers both "unknown user" and "wrong
// password"; the two causes are indistinguishable to the caller.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrOwnershipRequired is the hard deny for any access to a resource
// the principal does not own. It carries no hint about whether the
// resource exists for someone else.
var ErrOwnershipRequired = errors.New("you do not have access to this resource", errors.CategoryAuthz).
	WithTextCode(TextCodeOwnership).
	WithCode(errors.CodeForbidden)

// ErrTooManyLoginAttempts is returned when the attempt counter exceeds
// MaxLoginAttempts inside the cooldown window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrIdentityNotFound is an internal lookup failure; it never reaches
// login responses, which collapse it into ErrMismatchedHashAndPassword.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound)

// ErrUnableToMapClaims means the token parsed but its claims do not fit
// the expected shape.
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithTextCode(TextCodeClaimsMapping).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryValidation).
	WithTextCode("EMPTY_STRING")

// IsTokenExpiredError will check for expired tokens, including errors
// coming straight from the JWT parser.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for structurally broken tokens.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsSignatureError will check for signature verification failures.
func IsSignatureError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenSignature {
		return true
	}

	return strings.Contains(err.Error(), "signature is invalid")
}
