//go:build linux || darwin || freebsd

/*
   Helpers for all non-windows machines
*/

package helpers

// CoverdDir is the name of the coverd directory in the user's home directory
const CoverdDir = ".coverd"
