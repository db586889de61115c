package shared

import (
	"fmt"
	"strconv"
	"strings"
)

type Required interface {
	Name() string
	IsSet() bool
}

// Validate returns an error naming every variable that is not set.
func Validate(vars ...Required) error {
	missing := []string{}
	for _, s := range vars {
		if !s.IsSet() {
			missing = append(missing, s.Name())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) == 1 {
		return fmt.Errorf(`required flag "%s" not set`, missing[0])
	}
	return fmt.Errorf(`required flags "%s" not set`, strings.Join(missing, `", "`))
}

// NewVariable picks the first non-zero value, so values should be passed in
// order of precedence: flag, environment, config file, default.
func NewVariable[T comparable](name string, values ...T) Variable[T] {
	var result T // starts at zero value
	for _, v := range values {
		if v != result {
			result = v
			break
		}
	}
	return Variable[T]{name: name, value: result}
}

type Variable[T comparable] struct {
	name  string
	value T
}

func (s Variable[T]) Name() string {
	return s.name
}

func (s Variable[T]) IsSet() bool {
	var zero T
	return s.value != zero
}

func (s Variable[T]) Value() T {
	return s.value
}

// Bool parses a variable holding "true", "false", "1", "0", etc.
func Bool(v Variable[string]) (bool, error) {
	b, err := strconv.ParseBool(v.Value())
	if err != nil {
		return false, fmt.Errorf(`"%s" must be a boolean, got "%s"`, v.Name(), v.Value())
	}
	return b, nil
}

// List splits a comma-separated variable, dropping empty elements.
func List(v Variable[string]) []string {
	var out []string
	for _, part := range strings.Split(v.Value(), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
