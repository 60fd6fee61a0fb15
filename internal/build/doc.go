// Package build runs build cycles for a docset.
//
// A cycle resolves the docset and its fallback, drains the build queue over
// every file, runs whole-build validations, writes the auxiliary artifacts and
// saves side-channel state. Cycles of one docset never overlap.
package build
