package maxminddb

// libVersion is the version string reported by LibVersion, kept distinct
// from any Go module version so embedders can report it the same way the
// reference C library reports PACKAGE_VERSION.
const libVersion = "1.0.0"

// LibVersion returns the version string of this library.
func LibVersion() string {
	return libVersion
}
