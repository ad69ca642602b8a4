// Package sorter reads a directory of scanned mark sheets and files each
// sheet into a folder named after the marks found on it.
//
// For a layout with categories "grade" and "subject", a sheet marked "2" and
// "math" is copied to <output>/2_math/<relative path>. Categories without an
// accepted mark contribute the unmarked folder name instead. Originals are
// never moved or modified.
//
// Sheets are read concurrently. An optional CSV log records one row per sheet
// in input order, in UTF-8 or Shift_JIS.
package sorter
