// Package artifact finds build outputs and publishes them.
//
// [Find] walks a directory tree for files whose name ends with a suffix. When
// several files match, the lexicographically smallest full path wins, so the
// result does not depend on directory traversal order. [Publish] copies the
// chosen file to its canonical location and checks the copy against the
// digest computed when it was found.
package artifact
