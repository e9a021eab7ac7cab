/*
leavegap - Command-line income gap calculator

PURPOSE:
  Runs the calculator, the narration safety check and the baby cost
  estimate without the HTTP server.

COMMANDS:
  calculate        Income gap for one jurisdiction
  policies         List jurisdiction policies
  check-narration  Validate a narrative JSON file against a calculation
  baby-costs       Newborn supply estimate for a leave

EXAMPLES:
  leavegap calculate --jurisdiction US-CA --salary 70000 --leave-weeks 12
  leavegap calculate --jurisdiction US-NY --salary 90000 --json
  leavegap check-narration --jurisdiction US-CA --salary 70000 --narrative story.json
  leavegap baby-costs --leave-weeks 16 --db ./leave.db

SEE ALSO:
  - cmd/server: HTTP server over the same packages
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := GetRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
