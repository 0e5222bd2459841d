package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindConfig        Kind = "config"
	KindMenuParse     Kind = "menu_parse"
	KindImageLoad     Kind = "image_load"
	KindEmptyCategory Kind = "empty_category"
	KindStartup       Kind = "startup"
)

// Reason narrows down why an image could not be loaded.
type Reason string

const (
	ReasonNotFound    Reason = "not_found"
	ReasonUnreadable  Reason = "unreadable"
	ReasonDecode      Reason = "decode"
	ReasonUnsupported Reason = "unsupported"
	ReasonPanic       Reason = "panic"
)

type Error struct {
	Kind   Kind
	Reason Reason
	// SafeMessage is what the screen and the logs may show.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindConfig:
		return "Configuration could not be used; defaults applied."
	case KindMenuParse:
		return "Menu entry is malformed."
	case KindImageLoad:
		return "Image unavailable."
	case KindEmptyCategory:
		return "Category has no images."
	case KindStartup:
		return "Wall display could not start."
	default:
		return "Operation failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Config(cause error) error {
	return New(KindConfig, "", cause)
}

func MenuParse(safeMessage string, cause error) error {
	return New(KindMenuParse, safeMessage, cause)
}

func Startup(safeMessage string, cause error) error {
	return New(KindStartup, safeMessage, cause)
}

func EmptyCategory(safeMessage string) error {
	return New(KindEmptyCategory, safeMessage, nil)
}

// ImageLoad builds a load failure. The safe message stays generic so raw
// decoder output never reaches the screen.
func ImageLoad(reason Reason, cause error) error {
	return &Error{
		Kind:        KindImageLoad,
		Reason:      reason,
		SafeMessage: defaultSafeMessage(KindImageLoad),
		Cause:       cause,
	}
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

func ReasonOf(err error) (Reason, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Reason == "" {
		return "", false
	}
	return e.Reason, true
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

// IsFatal reports whether the error must abort start-up.
func IsFatal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindStartup
}
