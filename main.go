package main

import "github.com/sooqdata/souq-ingest/cmd"

func main() {
	cmd.Execute()
}
