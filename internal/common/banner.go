package common

import (
	"fmt"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner
func PrintBanner(hostname, space string, readOnly bool, logFile string) {
	version := GetVersion()
	build := GetBuild()

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorPurple).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")

	b.PrintTopLine()
	b.PrintCenteredText("CONFLUENCE LIFECYCLE")
	b.PrintCenteredText("Page Lifecycle Manager")
	b.PrintSeparatorLine()

	mode := "label"
	if readOnly {
		mode = "read-only"
	}

	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Instance", hostname, 15)
	b.PrintKeyValue("Space", space, 15)
	b.PrintKeyValue("Mode", mode, 15)
	b.PrintBottomLine()

	fmt.Printf("\n")

	if logFile != "" {
		pattern := strings.Replace(logFile, ".log", ".{YYYY-MM-DDTHH-MM-SS}.log", 1)
		fmt.Printf("   • Log File: %s\n", pattern)
		fmt.Printf("\n")
	}
}

// PrintColorizedMessage prints a message with specified color
func PrintColorizedMessage(color, message string) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green
func PrintSuccess(message string) {
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("✓ %s", message))
}

// PrintError prints an error message in red
func PrintError(message string) {
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("✗ %s", message))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(message string) {
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("⚠ %s", message))
}
