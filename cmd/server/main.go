// @title Metasearch API
// @version 1.0
// @description API агрегированного поиска по нескольким поисковым провайдерам с кэшем и повторами.

// @contact.name API Support

// @license.name Internal Use Only

// @host localhost:9999
// @BasePath /api
// @schemes http https

package main

import (
	"fmt"
	"os"

	"metasearch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
