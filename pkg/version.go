package pkg

// overridden at build time with -ldflags "-X github.com/gematik/sell-oauth/pkg.Version=..."
var Version = "0.1.0-dev"
