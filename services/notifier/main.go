package main

import (
	_ "time/tzdata"

	"github.com/stoik/launchwatch/services/notifier/internal/app"
)

func main() {
	app.Execute()
}
