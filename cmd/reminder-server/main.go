package main

import "github.com/oshokin/lost-item-tracker/cmd/reminder-server/cmd"

func main() {
	cmd.Execute()
}
