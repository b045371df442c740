// Package textnorm reduces programme titles to a canonical comparison form.
//
// Normalized titles contain only lowercase ASCII letters, digits and single
// spaces. They are used for fuzzy title comparison and never for display.
package textnorm
