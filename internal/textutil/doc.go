// Package textutil provides filename sanitization and header-safe text
// helpers.
//
// Artifact names come from remote media titles and may contain any Unicode.
// SanitizeFileName makes them safe for the local filesystem, ASCIIFileName
// folds them into the plain-ASCII fallback required by older HTTP clients,
// and ContentDisposition combines both forms into an attachment header.
package textutil
