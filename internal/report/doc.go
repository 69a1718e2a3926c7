// Package report exports connection profiles to an xlsx workbook.
//
// The workbook has two sheets. "Connections" holds one row per profile with
// its last test result, colored green or red. "Statistics" summarizes
// authentication modes and test results. Passwords are never exported.
package report
