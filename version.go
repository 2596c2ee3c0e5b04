package sealfile

// Version is the current sealfile release
const Version = "0.1.0"
