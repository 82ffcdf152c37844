package main

import (
	"os"

	"github.com/tgifford-usc/CurrentWeather/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
