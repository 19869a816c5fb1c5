//go:build !windows
// +build !windows

package scm

// DefaultBackend returns a backend whose Connect always fails with
// ErrUnsupported.
func DefaultBackend() Backend {
	return unsupportedBackend{}
}

type unsupportedBackend struct{}

func (unsupportedBackend) Connect(string) (Conn, error) {
	return nil, ErrUnsupported
}
