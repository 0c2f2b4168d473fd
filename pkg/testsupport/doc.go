// Package testsupport holds in-memory fakes and fixtures shared by docfill
// tests.
package testsupport
