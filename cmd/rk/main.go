package main

import (
	"fmt"
	"os"

	"github.com/HexmosTech/reqkit"
	"github.com/HexmosTech/reqkit/exchange"
)

func main() {
	if err := reqkit.Main(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		if exchange.IsCancelled(err) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
