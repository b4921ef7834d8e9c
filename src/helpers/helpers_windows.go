//go:build windows

/*
   Helpers for windows machines
*/

package helpers

// CoverdDir is the name of the coverd directory in the user's profile
// directory
const CoverdDir = "coverd"
