package main

import "github.com/xkilldash9x/tinyhtml/cmd"

func main() {
	cmd.Execute()
}
