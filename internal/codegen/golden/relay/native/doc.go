// Package native hands views of the generated relay types to C through the
// generated header. Everything but this file needs cgo.
package native
