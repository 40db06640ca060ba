package discord

const (
	// Display limits
	listEntryLimit   = 25
	maxMessageLength = 2000

	// Embed colors
	colorGreen = 0x2ECC71 // allowed / success
	colorRed   = 0xE74C3C // denied / exclusion
	colorBlue  = 0x3498DB // info
	colorGray  = 0x95A5A6 // neutral
)
