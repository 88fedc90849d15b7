package main

import (
	"os"

	"github.com/joho/godotenv"

	"sjsage522/listingwatch/logger"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	os.Exit(Execute())
}
