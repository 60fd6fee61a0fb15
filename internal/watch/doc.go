// Package watch turns filesystem changes and periodic refreshes into rebuild
// signals.
package watch
