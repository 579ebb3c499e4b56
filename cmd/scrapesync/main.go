package main

import "scrapesync-backend/cmd/scrapesync/commands"

func main() {
	commands.Execute()
}
