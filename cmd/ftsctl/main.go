// Command ftsctl runs index writes and searches directly against the index
// root, or queues writes on Kafka, without going through the HTTP API.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/cmd/ftsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
