package main

import (
	"fmt"

	"lockstep.team/rngd/config"
)

// Print a figlet "rngd" banner.
// figlet -f small rngd | sed -e 's/\\/\\\\/g' -e 's/.*/fmt.Println("&")/'
func printBanner() {
	fmt.Println("            _ ")
	fmt.Println("  _ _ _ _  __ _ __| |")
	fmt.Println(" | '_| ' \\/ _` / _` |")
	fmt.Println(" |_| |_||_\\__, \\__,_|")
	fmt.Println("          |___/      ")
	fmt.Println()
}

func printVersion() {
	fmt.Printf("   %s (%s) %s\n", config.Version.Package, config.Version.Revision, config.Version.GoVersion)
	fmt.Println()
}
