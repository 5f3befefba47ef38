package main

import "github.com/oshokin/lost-item-tracker/cmd/reminder-ctl/cmd"

func main() {
	cmd.Execute()
}
