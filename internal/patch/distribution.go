package patch

import (
	"regexp"
	"strings"
)

// Matches the distributionUrl line of a gradle-wrapper.properties file.
//
// Group 1 is the distribution file name (e.g. "gradle-8.5-bin.zip"), group 2
// is an optional carriage return so CRLF files keep their line endings. The
// scheme separator may be written escaped ("https\://"), as gradle itself
// writes it.
var distributionURL = regexp.MustCompile(`(?m)^distributionUrl=[A-Za-z][A-Za-z0-9+.-]*\\?://[^\s]*/([^/\s]+?)(\r?)$`)

// Official gradle distribution endpoint.
const OfficialDistributionBase = "https://services.gradle.org/distributions"

// Returns the pattern matching a gradle wrapper distribution URL.
func DistributionURL() *regexp.Regexp {
	return distributionURL
}

// Returns the replacement that points a matched distribution URL at base,
// keeping the distribution file name.
//
// The scheme colon is escaped as properties files require, and "$" in base
// is escaped so it is not read as a group reference.
func DistributionURLReplacement(base string) string {
	base = strings.TrimRight(base, "/")
	base = strings.Replace(base, "://", `\://`, 1)
	base = strings.ReplaceAll(base, "$", "$$")
	return "distributionUrl=" + base + "/${1}${2}"
}
