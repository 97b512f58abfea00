package main

import (
	"laundry/internal/app"

	"github.com/sirupsen/logrus"
)

// @title Laundry pricing API
// @version 1.0
// @description Multi-currency service pricing, order pricing and order lifecycle.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	if err := app.Run(); err != nil {
		logrus.Fatal(err)
	}
}
