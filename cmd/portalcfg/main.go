// Command portalcfg resolves developer portal configuration and validates payloads
// against the dynamic rules served by the portal config service.
package main

import (
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/cli"
)

func main() {
	cli.Execute(cli.NewRootCommand(cli.Options{
		Name:        "portalcfg",
		Description: "Developer portal configuration and validation client",
	}))
}
