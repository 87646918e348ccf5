package main

import "nhadat-backend/internal/cli"

func main() {
	cli.Execute()
}
