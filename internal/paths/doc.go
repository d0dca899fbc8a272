// Provides the filesystem locations gcbuild reads from.
//
// User-level configuration follows XDG conventions on Linux and the
// platform-native conventions on macOS and Windows. A project-level file in
// the working directory takes precedence over the user-level one.
package paths
