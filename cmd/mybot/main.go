// Command mybot is a terminal client for the document question-answering service.
package main

import "github.com/diogo/mybot/internal/commands"

func main() {
	commands.Execute()
}
