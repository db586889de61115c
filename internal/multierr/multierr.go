// multierr joins errors collected on cleanup paths, where the first error
// must not be lost when a deferred close or remove also fails.
package multierr

import "errors"

// Join returns nil if every err is nil, the single non-nil error if only one
// is set, and otherwise an error wrapping all of them.
func Join(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return errors.Join(nonNil...)
	}
}
