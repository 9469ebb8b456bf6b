//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// The tray is usually started from a shortcut; drop the console window it
// would otherwise keep open. Other subcommands print to the console.
func init() {
	if !shouldHideConsole(os.Args[1:]) {
		return
	}
	hideConsoleWindow()
}

func shouldHideConsole(args []string) bool {
	if os.Getenv("PWABRIDGE_SHOW_CONSOLE") != "" {
		return false
	}
	for _, arg := range args {
		if arg == "--debug" {
			return false
		}
	}
	for _, arg := range args {
		if len(arg) > 0 && arg[0] != '-' {
			return arg == "tray"
		}
	}
	return false
}

func hideConsoleWindow() {
	kernel32 := windows.NewLazySystemDLL("kernel32.dll")
	user32 := windows.NewLazySystemDLL("user32.dll")

	hwnd, _, _ := kernel32.NewProc("GetConsoleWindow").Call()
	if hwnd == 0 {
		return
	}

	const swHide = 0
	user32.NewProc("ShowWindow").Call(hwnd, swHide)
	kernel32.NewProc("FreeConsole").Call()
}
