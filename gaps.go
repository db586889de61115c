package migverify

// CheckContiguous returns a [*MigrationGapError] for the first migration whose
// version is not exactly one more than the version of the migration before
// it. The first migration may have any version. migrations must already be
// sorted in ascending order by version.
func CheckContiguous(migrations []Migration) error {
	for i := 1; i < len(migrations); i++ {
		expected := migrations[i-1].Version + 1
		if actual := migrations[i].Version; actual != expected {
			return &MigrationGapError{Expected: expected, Actual: actual}
		}
	}
	return nil
}
