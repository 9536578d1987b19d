package bininfo

// Version is the version of the binary, injected at build time via ldflags.
var Version = "v0.0.0-unknown"
