package plum

import "fmt"

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: type name is empty", ErrInvalidConfig)
	}
	return nil
}

func checkOrder(name string, o ByteOrder) error {
	if o != LittleEndian && o != BigEndian {
		return fmt.Errorf("%w: %s: unknown byte order %d", ErrInvalidConfig, name, int(o))
	}
	return nil
}

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}
