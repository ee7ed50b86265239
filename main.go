package main

import "github.com/jcdickinson/ruledoc/cmd"

func main() {
	cmd.Execute()
}
