package version

// Version is the release version of rutago.
const Version = "0.1.0"
