package errors

import "fmt"

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeInvalidRepoURL ErrCode = "INVALID_REPO_URL"
	ErrCodeQueryRejected  ErrCode = "QUERY_REJECTED"
	ErrCodeNotFound       ErrCode = "NOT_FOUND"
	ErrCodeRateLimited    ErrCode = "RATE_LIMITED"
	ErrCodeInternal       ErrCode = "INTERNAL_ERROR"
	ErrCodeBadRequest     ErrCode = "BAD_REQUEST"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidRepoURLError creates an error for a repository URL that cannot
// be parsed into owner/repo
func NewInvalidRepoURLError(url string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidRepoURL,
		Message: fmt.Sprintf("not a valid repository URL: %s", url),
	}
}

// NewQueryRejectedError creates an error for a search query the upstream
// service refused to process
func NewQueryRejectedError(query string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeQueryRejected,
		Message: fmt.Sprintf("search query rejected: %s", query),
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewRateLimitedError creates a new rate limited error
func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// IsInvalidRepoURL checks if the error is an invalid repository URL error
func IsInvalidRepoURL(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeInvalidRepoURL
	}
	return false
}

// IsQueryRejected checks if the error is a rejected search query error
func IsQueryRejected(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeQueryRejected
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeNotFound
	}
	return false
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeRateLimited
	}
	return false
}

// IsBadRequest checks if the error is a bad request error
func IsBadRequest(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeBadRequest
	}
	return false
}
