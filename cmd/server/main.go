package main

import "github.com/eleven-am/relay-backend/internal/bootstrap"

func main() {
	bootstrap.Run()
}
