// Package core provides the business logic for email list cleaning.
//
// It has no transport dependencies and is used by both the web server and
// the maillist CLI.
//
// # Pipeline
//
// A run turns one uploaded table into a cleaned list of [EmailRecord]:
//
//  1. [ParseFile] reads a .csv or .xlsx upload into a [Table]
//  2. [FindEmailColumn] picks the column whose header mentions an email keyword
//  3. [ProcessEmails] normalizes, filters, merges, deduplicates and sorts
//  4. [Export] writes the list back out as XLSX or CSV
//
// The pipeline functions are pure: inputs are never modified and no state is
// kept between calls.
//
// # Sessions
//
// [Service] keeps a working set per session in a [SessionStore]. Each upload
// is processed against the current working set and then folded into it with
// [AccumulateRecords]. Runs are bounded by an [UploadLimiter] and at most one
// upload per session is processed at a time.
//
// # Error Handling
//
// Failures are reported with sentinel errors (see errors.go) wrapped with
// context. [MapError] turns them into user messages with support codes:
//
//   - FILE001-FILE005: file size, format and content
//   - COL001, EML001-EML002: email column and address problems
//   - EXP001: empty export
//   - SES001-SES002: session lookup and concurrent uploads
//   - UPL002-UPL005: load shedding, cancellation, timeouts
package core
