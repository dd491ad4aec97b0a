package learnpath

// Version is the release of the engine. Overridden at build time with -ldflags "-X".
var Version = "0.4.0"
