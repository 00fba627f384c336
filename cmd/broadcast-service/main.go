// Package main is the broadcast-service entrypoint.
package main

import (
	"log"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
