package main

import (
	"github.com/sirupsen/logrus"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		logrus.Fatalf("application error: %v", err)
	}
}
