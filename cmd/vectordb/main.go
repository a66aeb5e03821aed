package main

import "github.com/custodia-labs/vectordb/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
