package try

// Fataler is anything which can abort with a message.
//
// *testing.T and *log.Logger satisfy this.
type Fataler interface {
	Fatal(...any)
}

// Either holds the outcome of a call returning (T, error).
type Either[T any] interface {
	// Get unpacks the pair again.
	Get() (T, error)

	// OrFatal returns the value, or calls ftl.Fatal with the error.
	//
	// When ftl has Helper() (like *testing.T), it is called first.
	OrFatal(ftl Fataler) T

	// OrDefault returns the value, or d when the call failed.
	OrDefault(d T) T
}

// To wraps the return values of a call.
//
//	client := try.To(rest.NewClient(prof)).OrFatal(t)
func To[T any](value T, err error) Either[T] {
	if err != nil {
		return failed[T]{err: err}
	}
	return succeeded[T]{value: value}
}

// Map converts the value of a successful Either.
func Map[T any, R any](e Either[T], mapper func(T) R) Either[R] {
	v, err := e.Get()
	if err != nil {
		return failed[R]{err: err}
	}
	return succeeded[R]{value: mapper(v)}
}

type succeeded[T any] struct {
	value T
}

func (s succeeded[T]) Get() (T, error) { return s.value, nil }

func (s succeeded[T]) OrFatal(Fataler) T { return s.value }

func (s succeeded[T]) OrDefault(T) T { return s.value }

type failed[T any] struct {
	err error
}

func (f failed[T]) Get() (T, error) { return *new(T), f.err }

func (f failed[T]) OrDefault(d T) T { return d }

func (f failed[T]) OrFatal(ftl Fataler) T {
	if h, ok := ftl.(interface{ Helper() }); ok {
		h.Helper()
	}
	ftl.Fatal(f.err)
	return *new(T)
}
