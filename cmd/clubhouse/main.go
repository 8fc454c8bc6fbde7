// Command clubhouse runs the club management API and its operator tasks.
package main

import (
	"os"

	// Embedded zone data so CLUBHOUSE_CLUB_TIMEZONE works on minimal images.
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
