//go:build !(linux && !tinygo) && !rp2040 && !rp2350

package platform

// Open returns host fakes; no GPIO backend exists on this build.
func Open(backend string) (PinFactory, error) {
	switch backend {
	case "", BackendFake:
		return DefaultPinFactory(), nil
	}
	return nil, ErrBackend
}
