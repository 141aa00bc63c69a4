// Package procutil runs the short-lived helper commands the launcher reads
// system settings through (defaults, gsettings, launchctl). Commands never
// flash a console window on Windows and are bounded by DefaultTimeout unless
// the caller's context already carries a deadline.
package procutil
