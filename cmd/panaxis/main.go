// Command panaxis drives a single stepper axis from serial, web, stdin,
// scripted or hand-tracker input.
package main

import (
	"os"
)

func main() {
	if err := execute(newRootCmd(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
