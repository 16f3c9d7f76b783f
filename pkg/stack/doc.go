// Package stack builds the layer plan for a multi-resolution icon.
//
// Given one source layer and an ordered list of size selections, [Generate]
// returns the duplicate, rename, insert and scale instructions that produce
// a contiguous block of square layers, largest on top:
//
//	256x256   (inserted at 0)
//	64x64     (inserted at -1)
//	32x32     (inserted at -2)
//	Base      (the untouched source)
//
// The package only describes effects. Applying them is the job of a
// host store (see package host), which must execute the returned [LayerOp]
// values in slice order because every insert position is relative to the
// layers created by the previous operations.
//
// # Selections
//
// A [Selection] pairs an enabled toggle with a size. Each slot index has a
// stable default size of 2^(base+index) (see [DefaultSize]), so the
// default configuration of four slots with base 5 yields 32, 64, 128 and
// 256.
//
// Sizes are not validated here. Bounds checking belongs to the
// configuration layer (package config); [Generate] trusts its input.
package stack
