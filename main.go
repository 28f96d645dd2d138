package main

import "github.com/mareasperez/pg-backup-restore/cmd"

func main() {
	cmd.Execute()
}
