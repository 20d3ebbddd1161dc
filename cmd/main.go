// cmd/main.go
package main

import (
	"go-dating-api/app"
)

func main() {
	app.Run()
}
