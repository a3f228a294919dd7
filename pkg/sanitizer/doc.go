// Package sanitizer normalizes user-supplied clinic data before validation
// and storage.
//
// Every function is idempotent. Invalid input is returned in a form the
// validator will reject rather than silently replaced.
//
//   - Phone numbers: E.164 via libphonenumber, separators stripped
//   - Emails: trimmed and lower-cased, the patient match key
//   - Names and free text: whitespace collapsed
//   - Slices: normalized, empty values and duplicates dropped
//   - URLs: https scheme, lower-cased host
package sanitizer
