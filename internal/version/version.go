// ABOUTME: Build-time identity constants
// ABOUTME: Reported in the Hello handshake and the CLI's -version output
package version

const (
	// Version is the client's release version.
	Version = "0.1.0"

	// Product is the program name printed by the -version flag.
	Product = "snapclient"

	// Manufacturer identifies the project, not a hardware vendor.
	Manufacturer = "snapcastgo"
)
