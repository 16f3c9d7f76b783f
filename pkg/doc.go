// Package pkg provides the core libraries for iconstack, which turns one
// source image into a stack of downscaled icon layers.
//
// # Overview
//
// A size selection (up to four enabled slots, each with a pixel size) is
// converted into an ordered list of layer operations. Each operation
// duplicates the source layer, renames it to "NxN", scales it, and inserts
// it at position -k: the first copy goes to the top and each later copy
// directly below the previous one. Copies are emitted largest first, so the
// finished stack runs from the largest size at the top down to the source
// at the bottom.
//
// # Architecture
//
//	source image
//	     ↓
//	[stack] (selections → ordered LayerOps)
//	     ↓
//	[host] (apply ops to a layer Store)
//	     ↓
//	[ico] (encode the created layers as one .ico)
//
// [pipeline] orchestrates the three steps and consults [cache]; [layout]
// groups the per-slot controls into rows for the terminal form and the
// HTTP API.
//
// # Quick Start
//
//	ops := stack.Generate("Base", []stack.Selection{
//	    {Enabled: true, Size: 256},
//	    {Enabled: true, Size: 32},
//	})
//	created, err := host.Apply(ctx, store, img, ops, host.ApplyOptions{})
//
// # Main Packages
//
//   - [stack]: selections, layer naming and op generation
//   - [layout]: row grouping of per-slot controls
//   - [host]: the layer Store abstraction and op application
//   - [host/memory]: an in-memory Store backed by *image.NRGBA
//   - [ico]: ICO container encoding and directory reading
//   - [imageio]: decoding sources and writing layers and plans
//   - [config]: TOML configuration and selection profiles
//   - [cache]: file-backed cache for encoded icons
//   - [pipeline]: plan, apply and export orchestration
//   - [errors]: coded errors and validation helpers
//   - [observability]: pipeline, cache and HTTP hooks
//
// [stack]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/stack
// [layout]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/layout
// [host]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/host
// [host/memory]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/host/memory
// [ico]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/ico
// [imageio]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/imageio
// [config]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/iconstack/pkg/observability
package pkg
