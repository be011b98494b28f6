package formatter

// ANSI escape codes for terminal output. DisableColors blanks them all, so
// these are variables rather than constants.
var (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	// Foreground colors
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

// DisableColors turns every escape code into a no-op, for --no-color and
// piped output.
func DisableColors() {
	Reset, Bold, Dim = "", "", ""
	Red, Green, Yellow, Blue = "", "", "", ""
	Magenta, Cyan, White, Gray = "", "", "", ""
}

// Color helpers
func Colorize(color, text string) string {
	return color + text + Reset
}

func BoldColorize(color, text string) string {
	return Bold + color + text + Reset
}

func Title(text string) string {
	return BoldColorize(Cyan, text)
}

func SectionHeader(text string) string {
	return BoldColorize(Blue, text)
}

func Success(text string) string {
	return Colorize(Green, text)
}

func Warning(text string) string {
	return Colorize(Yellow, text)
}

func Error(text string) string {
	return Colorize(Red, text)
}

func Info(text string) string {
	return Colorize(Cyan, text)
}

func Muted(text string) string {
	return Colorize(Gray, text)
}

func LikelihoodBadge(likelihood string) string {
	switch likelihood {
	case "high":
		return BoldColorize(Red, "● HIGH")
	case "medium":
		return BoldColorize(Yellow, "● MEDIUM")
	case "low":
		return BoldColorize(Green, "● LOW")
	default:
		return BoldColorize(Gray, "● UNKNOWN")
	}
}

func PriorityBadge(priority string) string {
	switch priority {
	case "critical":
		return BoldColorize(Red, "⚠ CRITICAL")
	case "high":
		return Colorize(Red, "⚠ HIGH")
	case "medium":
		return Colorize(Yellow, "◉ MEDIUM")
	case "low":
		return Colorize(Green, "○ LOW")
	default:
		return Colorize(Gray, "• NORMAL")
	}
}
