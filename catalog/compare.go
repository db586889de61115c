package catalog

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/peterldowns/migverify/internal/toposort"
)

// Comparator produces a Report describing every structural difference between
// two catalogs.
type Comparator struct {
	// CircularReferenceLogger, if set, is called once for every foreign key
	// cycle found in either catalog. Cycles are not differences and do not
	// cause a comparison to fail.
	CircularReferenceLogger func(msg string)
}

func NewComparator() *Comparator {
	return &Comparator{}
}

// Compare returns the differences between the golden catalog and the actual
// catalog. The report is empty if and only if the catalogs are structurally
// identical.
func (c *Comparator) Compare(golden, actual *Catalog) *Report {
	c.logCycles("golden", golden)
	c.logCycles("actual", actual)
	var r reporter
	cmp.Equal(golden, actual, cmp.Reporter(&r))
	return &Report{Entries: r.entries}
}

func (c *Comparator) logCycles(side string, cat *Catalog) {
	if c == nil || c.CircularReferenceLogger == nil || cat == nil {
		return
	}
	tables := make([]*Table, 0, len(cat.Tables))
	for _, t := range cat.Tables {
		tables = append(tables, t)
	}
	for _, cycle := range toposort.Cycles[string](tables) {
		c.CircularReferenceLogger(fmt.Sprintf(
			"%s catalog: circular foreign key reference between %s",
			side, strings.Join(cycle, ", "),
		))
	}
}

// reporter is a cmp.Reporter that records a Report entry for every unequal
// leaf of the comparison.
type reporter struct {
	path    cmp.Path
	entries []Entry
}

func (r *reporter) PushStep(ps cmp.PathStep) {
	r.path = append(r.path, ps)
}

func (r *reporter) Report(rs cmp.Result) {
	if rs.Equal() {
		return
	}
	golden, actual := r.path.Last().Values()
	r.entries = append(r.entries, Entry{
		Path:   renderPath(r.path),
		Golden: renderValue(golden),
		Actual: renderValue(actual),
	})
}

func (r *reporter) PopStep() {
	r.path = r.path[:len(r.path)-1]
}

func renderPath(path cmp.Path) string {
	var b strings.Builder
	for _, step := range path {
		switch s := step.(type) {
		case cmp.StructField:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Name())
		case cmp.MapIndex:
			fmt.Fprintf(&b, "[%q]", fmt.Sprint(s.Key()))
		case cmp.SliceIndex:
			gx, ax := s.SplitKeys()
			switch {
			case gx == ax:
				fmt.Fprintf(&b, "[%d]", gx)
			case gx < 0:
				fmt.Fprintf(&b, "[->%d]", ax)
			case ax < 0:
				fmt.Fprintf(&b, "[%d->]", gx)
			default:
				fmt.Fprintf(&b, "[%d->%d]", gx, ax)
			}
		}
	}
	return b.String()
}

func renderValue(v reflect.Value) string {
	if !v.IsValid() {
		return "<missing>"
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "<nil>"
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.String {
		return fmt.Sprintf("%q", v.String())
	}
	if !v.CanInterface() {
		return v.String()
	}
	return fmt.Sprintf("%+v", v.Interface())
}
