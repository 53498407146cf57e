// Package database provides SQLite-based persistence for analysis runs.
//
// Each completed site analysis is stored as one run row (full report JSON
// plus summary columns) and a set of link-edge rows. Stored runs back the
// "wplinks history" command and make link graphs comparable across time.
package database
