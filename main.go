package main

import "rt-chat-backend/cmd"

func main() {
	cmd.Run()
}
