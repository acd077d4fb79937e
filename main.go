// negentropy is a range-based set-reconciliation engine and its
// line-oriented harness for interop testing.
package main

import (
	"fmt"
	"os"

	"github.com/negentropysync/negentropy/cmd"
	harness "github.com/negentropysync/negentropy/cmd/negentropy-harness"
)

var (
	version string
	commit  string
	branch  string
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := harness.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
