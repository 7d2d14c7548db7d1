package common

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorBlue   = "\033[34m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Colorize wraps s in the given ANSI color when enabled is set.
func Colorize(enabled bool, color, s string) string {
	if !enabled {
		return s
	}
	return color + s + ColorReset
}
