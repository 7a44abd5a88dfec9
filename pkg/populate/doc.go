// Package populate fills widgets with the option records of their source and
// restores prior selections.
//
// Single-value widgets select the option whose value equals the prior value.
// Multi-value widgets parse the prior value as a JSON array and select every
// option whose value is a member. When nothing matched, a selected
// placeholder ("---------", empty value) is appended so every populated
// widget has a determinate selection.
package populate
