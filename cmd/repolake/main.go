package main

import "github.com/dbsmedya/repolake/cmd/repolake/cmd"

func main() {
	cmd.Execute()
}
