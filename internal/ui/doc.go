// Package ui implements the terminal browser for a loaded collection:
// the folder tree on top, drilling into playlists and their tracks.
// Built on bubbletea with bubbles/list for navigation.
package ui
