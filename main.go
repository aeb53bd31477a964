package main

import "github.com/frahmantamala/hospital-management/cmd"

func main() {
	cmd.Execute()
}
