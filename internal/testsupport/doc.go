// Package testsupport builds temp-dir configs, job stores, and a scripted
// fetcher for package tests.
package testsupport
