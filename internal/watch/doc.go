// Package watch turns file system events on pipeline files into debounced
// reload notifications, using fsnotify.
package watch
