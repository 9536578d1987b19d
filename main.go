package main

import (
	"github.com/stridefit/backend/cmd/app"
)

func main() {
	app.Run()
}
