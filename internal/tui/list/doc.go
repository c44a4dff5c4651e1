// Package listview scrolls a window over pre-rendered rows and tracks the
// selected row. Only the rows inside the window are rendered, so a long page
// costs O(height) per frame.
package listview
