// Command contactctl imports contact CSV files and manages the contacts schema
// without going through the HTTP server.
package main

import (
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	Execute()
}
