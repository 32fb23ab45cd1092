package storyline

// Version is the release of the module; release builds override it with
// -ldflags "-X github.com/aretw0/storyline.Version=...".
var Version = "0.4.0-dev"
