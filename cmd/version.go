// -- cmd/version.go --
package cmd

// Version is stamped at build time via -ldflags.
var Version = "dev"
