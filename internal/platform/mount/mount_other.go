//go:build !linux

package mount

// NewBinder returns a Binder that rejects every mount. Bind mounts are a
// Linux facility; other platforms can only exercise the dry-run paths.
func NewBinder() Binder {
	return unsupportedBinder{}
}

type unsupportedBinder struct{}

func (unsupportedBinder) Bind(_, _ string) error {
	return ErrUnsupported
}
