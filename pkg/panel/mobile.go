package panel

import "regexp"

// ConstrainedFunc reports whether the panel runs in a constrained-input
// environment (touch screen, wall tablet), where safe mode defaults to on.
type ConstrainedFunc func() bool

var mobileUA = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// MobileUserAgent reports whether ua belongs to a phone or tablet browser.
func MobileUserAgent(ua string) bool {
	return mobileUA.MatchString(ua)
}

// UserAgent returns a ConstrainedFunc for a fixed User-Agent string.
func UserAgent(ua string) ConstrainedFunc {
	return func() bool { return MobileUserAgent(ua) }
}
