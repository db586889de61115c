package shared

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestNewVariablePrecedence(t *testing.T) {
	t.Parallel()
	check.Equal(t, "flag", NewVariable("x", "flag", "env", "config", "default").Value())
	check.Equal(t, "config", NewVariable("x", "", "", "config", "default").Value())
	check.Equal(t, "default", NewVariable("x", "", "", "", "default").Value())
	check.Equal(t, false, NewVariable("x", "", "").IsSet())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	check.Nil(t, Validate(NewVariable("a", "set")))
	err := Validate(NewVariable("a", ""), NewVariable("b", "set"))
	check.Equal(t, `required flag "a" not set`, err.Error())
	err = Validate(NewVariable("a", ""), NewVariable("b", ""))
	check.Equal(t, `required flags "a", "b" not set`, err.Error())
}

func TestBool(t *testing.T) {
	t.Parallel()
	b, err := Bool(NewVariable("require-snapshots", "false"))
	check.Nil(t, err)
	check.Equal(t, false, b)
	b, err = Bool(NewVariable("require-snapshots", "", "true"))
	check.Nil(t, err)
	check.Equal(t, true, b)
	_, err = Bool(NewVariable("require-snapshots", "maybe"))
	check.Equal(t, `"require-snapshots" must be a boolean, got "maybe"`, err.Error())
}

func TestList(t *testing.T) {
	t.Parallel()
	check.Equal(t, []string{"src/main/sqldelight", "src/shared"}, List(NewVariable("sources", "src/main/sqldelight, src/shared,")))
	check.Equal(t, 0, len(List(NewVariable("sources", ""))))
}
