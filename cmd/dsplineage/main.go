package main

import "github.com/dbsmedya/dsplineage/cmd/dsplineage/cmd"

func main() {
	cmd.Execute()
}
