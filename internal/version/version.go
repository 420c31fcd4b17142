// ABOUTME: Version constants for the deck and its remote protocol handshake
// ABOUTME: Overridden at release time via -ldflags
package version

// Version is the release version, replaced by the build.
var Version = "0.1.0"

// Product is the product name reported to remotes.
const Product = "Loopdeck"

// Manufacturer identifies the project.
const Manufacturer = "Loopdeck Project"
