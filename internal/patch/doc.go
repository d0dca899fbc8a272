// Package patch temporarily rewrites a configuration file and puts it back.
//
// [Backup] snapshots a file in memory, writes a sibling ".bak" copy and
// returns a [Snapshot] handle. [Patch] applies a regular-expression
// substitution to the live file, and [Restore] writes the snapshot back and
// removes the ".bak" copy. The
// snapshot is byte-exact: line endings, trailing newlines, and encoding are
// never touched.
//
// Restore is safe to call more than once and with a nil handle; those cases
// log a warning and return nil. The ".bak" file only matters after a crash:
// [Recover] puts a stale copy back before the next run takes a new backup.
//
// Example usage:
//
//	b, err := patch.Backup("gradle/wrapper/gradle-wrapper.properties")
//	if err != nil {
//	    return err
//	}
//	defer patch.Restore(b)
//
//	if _, err := patch.Patch(b, patch.DistributionURL(), patch.DistributionURLReplacement(base)); err != nil {
//	    return err
//	}
package patch
