package catalog

import (
	"fmt"
	"strings"
)

// Entry is a single difference. Path locates the difference inside the
// catalog, for example `Tables["cats"].Columns[1].Type`. A value that exists
// on only one side is rendered as "<missing>" on the other.
type Entry struct {
	Path   string
	Golden string
	Actual string
}

// Report is the result of comparing two catalogs.
type Report struct {
	Entries []Entry
}

func (r *Report) Empty() bool {
	return r == nil || len(r.Entries) == 0
}

func (r *Report) String() string {
	if r.Empty() {
		return ""
	}
	var b strings.Builder
	for i, e := range r.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s:\n  golden: %s\n  actual: %s", e.Path, e.Golden, e.Actual)
	}
	return b.String()
}
