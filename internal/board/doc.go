// Package board holds the rendered state of a living dex page: boxes of slots for the current
// game and a caught readout for every game of the layout.
//
// A [Board] implements [livesync.View], so stream events are applied to it by position.
package board
