package main

import (
	"log"

	"recycle-reward-system/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
