package main

import "video-toolbox/cmd"

func main() {
	cmd.Execute()
}
