// Command rkdctl is the operator tool for the RKD client: it authenticates
// with the configured credentials, inspects the token shared through Redis
// and mints access tokens for the gateway.
package main

import (
	"fmt"
	"os"
)

func main() {
	app := App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
