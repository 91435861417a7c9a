/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import "github.com/allbin/go-gpib/cmd/gpibctl/commands"

func main() {
	commands.Execute()
}
