// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result.
// Invalid input produces an empty string or empty slice rather than an error,
// and the validator then reports the field as missing or malformed.
//
// Normalization includes:
//   - Phone numbers: E.164, trying KR then US for numbers without a country code
//   - Meeting URLs: lowercase scheme and host, tracking parameters removed
//   - Agenda text: control characters stripped, line breaks kept
//   - Search terms: whitespace collapsed and regex metacharacters escaped
//   - Slices: duplicates and empty values removed after normalization
package sanitizer
