// Package main is the mpc command itself.
package main

import (
	"log"
	"os"

	mpccli "go.viam.com/mpc/cli"
)

func main() {
	if err := mpccli.NewApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
