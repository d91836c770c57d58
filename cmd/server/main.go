package main

import "milestonenotifier/internal/app/server"

func main() {
	server.Run()
}
