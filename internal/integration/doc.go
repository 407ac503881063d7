// Package integration holds end-to-end tests that drive the scanner,
// indexer, search engine, recall cache and watcher together against
// real files and a file-backed database.
package integration
