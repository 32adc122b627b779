package version

import "fmt"

// Version represents a version of reqkit
type Version struct {
	major int
	minor int
	patch int
}

func (v *Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// UserAgent is the default User-Agent header value sent by reqkit.
func (v *Version) UserAgent() string {
	return "reqkit/" + v.String()
}

// Current returns current version of reqkit
func Current() *Version {
	return &Version{major: 0, minor: 3, patch: 0}
}
