package main

import (
	"log"

	"github.com/kiwy37/careerconnect/internal/di"
)

func main() {
	runner, err := di.InitializeMigrationRunner()
	if err != nil {
		log.Fatal(err)
	}
	if err := runner.Run(); err != nil {
		log.Fatal(err)
	}
}
