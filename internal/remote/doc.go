// Package remote implements the HTTP client for the hosted data backend's
// records API and the sentinel error taxonomy used to classify commit
// failures.
package remote
