// Package display models the text panels scripts write into and the rules for
// merging a render result with what a panel already shows.
package display
