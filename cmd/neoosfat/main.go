// Command neoosfat inspects FAT boot volumes with the same driver the boot
// loader uses.
package main

import (
	"log"
	"os"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}
