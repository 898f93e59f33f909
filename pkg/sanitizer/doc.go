// Package sanitizer provides input normalization for free-text marketplace
// data before validation and storage.
//
// All functions are idempotent - applying them multiple times produces the
// same result. Invalid input is handled gracefully, typically by returning
// an empty string rather than an error.
//
// Normalization includes:
//   - Names: strip control characters, collapse whitespace, trim
//   - Locations: as names, plus lowercasing for case-insensitive matching
//   - References: trim and remove all whitespace from opaque external IDs
package sanitizer
