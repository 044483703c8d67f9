package main

import (
	"github.com/joho/godotenv"
	"github.com/mselser95/polymarket-arb/cmd"
)

func main() {
	_ = godotenv.Load()
	cmd.Execute()
}
