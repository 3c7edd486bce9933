package model

// Centralized icons for console and TUI log lines
// Using simple single-width characters for consistent terminal rendering
const (
	IconInfo    = "·" // Middle dot (informational)
	IconOK      = "✓" // Check mark (step succeeded)
	IconError   = "✗" // Thin X (step failed)
	IconWarn    = "!" // Exclamation (non-fatal problem)
	IconDebug   = "»" // Chevron (debug detail)
	IconMVCU    = "M" // Variant badge
	IconSVCU    = "S" // Variant badge
	IconRunning = "…" // Worker in flight
)

// VariantIcon returns the badge shown next to a variant name.
func VariantIcon(v Variant) string {
	if v.Code == SVCU.Code {
		return IconSVCU
	}
	return IconMVCU
}
