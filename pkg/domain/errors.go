package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrPasteNotFound   = NewErr("PASTE_NOT_FOUND", "paste not found", http.StatusNotFound)
	ErrPasteExpired    = NewErr("PASTE_EXPIRED", "paste expired", http.StatusGone)
	ErrEmptyContent    = NewErr("EMPTY_CONTENT", "content is empty", http.StatusBadRequest)
	ErrContentTooLarge = NewErr("CONTENT_TOO_LARGE", "content too large", http.StatusBadRequest)
	ErrTitleTooLong    = NewErr("TITLE_TOO_LONG", "title too long", http.StatusBadRequest)
	ErrExpiryTooShort  = NewErr("EXPIRY_TOO_SHORT", "expiry too short", http.StatusBadRequest)
	ErrExpiryTooLong   = NewErr("EXPIRY_TOO_LONG", "expiry too long", http.StatusBadRequest)
	ErrBadExpiryKey    = NewErr("UNSUPPORTED_EXPIRY_KEY", "unsupported expiry key", http.StatusBadRequest)
	ErrInvalidExpiry   = NewErr("INVALID_EXPIRY", "expiry must be in the future", http.StatusBadRequest)
	ErrInvalidRequest  = NewErr("INVALID_REQUEST", "invalid request", http.StatusBadRequest)
	ErrRateLimited     = NewErr("RATE_LIMIT_EXCEEDED", "rate limit exceeded", http.StatusTooManyRequests)
	ErrInternalServer  = NewErr("INTERNAL_ERROR", "internal error", http.StatusInternalServerError)
)

// Storage failure codes. These are infrastructure faults, never
// caller-correctable; handlers collapse them to an opaque 500.
const (
	CodeCreateFailed       = "CREATE_FAILED"
	CodeDeleteFailed       = "DELETE_FAILED"
	CodeListFailed         = "LIST_FAILED"
	CodeIDGenerationFailed = "ID_GENERATION_FAILED"
)

type Err struct {
	Code   string `json:"code"`
	Msg    string `json:"message"`
	Status int    `json:"-"`
}

func (e *Err) Error() string { return e.Msg }

func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

// WithMsg returns a copy carrying a more specific human-readable message
// while keeping the stable code and status.
func (e *Err) WithMsg(msg string) *Err {
	return &Err{Code: e.Code, Msg: msg, Status: e.Status}
}

// Is lets wrapped copies (WithMsg) match their template via errors.Is.
func (e *Err) Is(target error) bool {
	t, ok := target.(*Err)
	return ok && t.Code == e.Code
}

// StorageErr wraps a backend I/O failure with a machine-readable code.
type StorageErr struct {
	Code string
	Err  error
}

func (e *StorageErr) Error() string { return e.Code + ": " + e.Err.Error() }
func (e *StorageErr) Unwrap() error { return e.Err }

func NewStorageErr(code string, err error) *StorageErr {
	return &StorageErr{Code: code, Err: err}
}

type ErrResp struct {
	Error ErrDetail `json:"error"`
}

type ErrDetail struct {
	Code string `json:"code"`
	Msg  string `json:"message"`
}

func ToResp(err error) ErrResp {
	if e, ok := err.(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	return ErrResp{Error: ErrDetail{Code: "INTERNAL_ERROR", Msg: "internal error"}}
}

func Status(err error) int {
	if e, ok := err.(*Err); ok {
		return e.Status
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
