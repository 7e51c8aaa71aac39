// Package textutil turns theme names into safe output file names.
package textutil
