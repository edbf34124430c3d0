package btc

// Errors other than InvalidEncoding (defined in types.go) that arise while
// working with Bitcoin primitives.

import "fmt"

// ScriptError is returned when a redeem script cannot be built or parsed
// with the parameters supplied.
type ScriptError struct {
	Reason string
}

func (e ScriptError) Error() string {
	return fmt.Sprintf("script error: %s", e.Reason)
}
