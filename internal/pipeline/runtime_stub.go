//go:build !govips || !cgo

package pipeline

func Startup() error {
	return nil
}

func Shutdown() {}

func newTransformer(limits Limits) (Transformer, error) {
	return stdlibTransformer{limits: limits}, nil
}
