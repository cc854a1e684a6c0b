package main

import "steam-chat/internal/app"

func main() {
	app.Run()
}
