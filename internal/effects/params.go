package effects

import "fmt"

func paramOutOfRange(index int) error {
	return fmt.Errorf("effects: parameter index %d out of range", index)
}
