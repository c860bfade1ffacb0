package main

import "github.com/naka-gawa/profile-banner/cmd"

func main() {
	cmd.Execute()
}
