// Package docset models the inputs of a build: docsets, file references, their
// origin and content type, and the file set a cycle operates on.
package docset
