package common

// Set through -ldflags "-X github.com/colorfulnotion/hostjit/common.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
