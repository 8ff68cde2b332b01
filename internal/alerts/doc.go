// Package alerts sends operational notifications through ntfy so site
// managers hear about sync failures and backlogs without watching logs.
package alerts
