// Package view shapes a snapshot into the read models served to clients:
// map markers, treemap tiles and a sortable, paged table. View functions
// never modify the snapshot.
package view
