package calls

// Kind tells the transport layer how a failure should be reported.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindProvider:
		return "provider"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(err error) error { return &Error{Kind: KindValidation, Err: err} }
func providerError(err error) error { return &Error{Kind: KindProvider, Err: err} }
func internalError(err error) error { return &Error{Kind: KindInternal, Err: err} }

// KindOf returns KindInternal for errors that did not come from this package.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}
