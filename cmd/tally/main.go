// Command tally reconciles opinion polls against a party registry.
package main

import "github.com/mesh-intelligence/tally/internal/cli"

func main() {
	cli.Execute()
}
