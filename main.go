package main

import "github.com/thereayou/convoy/cmd/server"

func main() {
	server.NewServer().Run()
}
