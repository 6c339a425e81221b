package compute

import "fmt"

type Backend interface {
	Name() string
	Workers() int
	For(n int, body func(i, worker int))
}

var activeBackend Backend = NewCPUBackend(0)

func SetBackend(b Backend) {
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// NewBackend returns the serial backend for one worker and the parallel CPU
// backend otherwise. workers <= 0 uses every available CPU.
func NewBackend(name string, workers int) (Backend, error) {
	switch name {
	case "", "cpu", "parallel":
		if workers == 1 {
			return NewSerialBackend(), nil
		}
		return NewCPUBackend(workers), nil
	case "serial":
		return NewSerialBackend(), nil
	}
	return nil, fmt.Errorf("unknown compute backend: %s", name)
}
