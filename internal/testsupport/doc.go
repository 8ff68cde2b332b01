// Package testsupport provides shared fixtures for fieldsync tests.
package testsupport
