// Package markdown implements the document transform engine and the
// filesystem ingestion path built on it. Render, Reverse and Outline are
// pure functions over an ordered substitution pipeline; Loader and Importer
// turn markdown trees on disk into knowledge document versions.
package markdown
