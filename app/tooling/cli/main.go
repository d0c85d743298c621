// This program is the operator tool for the medchain nodes.
package main

import "github.com/ardanlabs/medchain/app/tooling/cli/cmd"

func main() {
	cmd.Execute()
}
