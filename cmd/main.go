package main

import (
	"eurorates/internal/app"

	"github.com/sirupsen/logrus"
)

// @title EUR Exchange Rates API
// @version 1.0
// @description Daily EUR foreign exchange rates and conversions.
// @BasePath /api/v1
func main() {
	if err := app.Run(); err != nil {
		logrus.Fatalf("Application stopped with error: %v", err)
	}
}
