//go:build !windows && !linux && !darwin

package hotkeys

type unsupportedSource struct{}

// NewSystemSource returns a source that always reports ErrUnsupported.
func NewSystemSource() Source { return unsupportedSource{} }

func (unsupportedSource) Start(Binding, func(KeyEvent)) error { return ErrUnsupported }
func (unsupportedSource) Watch(Binding) error                 { return ErrUnsupported }
func (unsupportedSource) Stop() error                         { return nil }
