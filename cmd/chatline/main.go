// Command chatline is a terminal client for a chat endpoint.
package main

import "github.com/diogo/chatline/internal/commands"

func main() {
	commands.Execute()
}
