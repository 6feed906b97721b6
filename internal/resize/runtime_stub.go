//go:build !govips || !cgo

package resize

// Startup and Shutdown are no-ops for the pure-Go backend. They exist so
// main packages can call them unconditionally.
func Startup() error {
	return nil
}

func Shutdown() {}

func newTranscoder(filter ResampleFilter) (Transcoder, error) {
	return newStdTranscoder(filter), nil
}
