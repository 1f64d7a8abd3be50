package dispatch

import "errors"

// Kind classifies dispatch failures so the HTTP layer can map them to
// status codes without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidTransition
	KindResourceUnavailable
	KindLicenseExpired
	KindCapacityExceeded
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// KindOf returns the failure kind, or KindInternal for errors that did not
// originate from dispatch rules.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func notFound(msg string) error            { return &Error{Kind: KindNotFound, Msg: msg} }
func invalidTransition(msg string) error   { return &Error{Kind: KindInvalidTransition, Msg: msg} }
func resourceUnavailable(msg string) error { return &Error{Kind: KindResourceUnavailable, Msg: msg} }
func licenseExpired(msg string) error      { return &Error{Kind: KindLicenseExpired, Msg: msg} }
func capacityExceeded(msg string) error    { return &Error{Kind: KindCapacityExceeded, Msg: msg} }
