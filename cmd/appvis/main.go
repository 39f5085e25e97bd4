package main

import (
	"log"

	"github.com/CDTO-DENKART/app-visualizer/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ appvis failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ appvis stopped with error: %v", err)
	}
}
