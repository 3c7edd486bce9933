package model

// Version is the release version; overridden at build time with
// -ldflags "-X vculaunch/internal/model.Version=...".
var Version = "1.2.0"
