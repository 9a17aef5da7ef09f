package main

import "github.com/SoarinFerret/TimeoutWarden/cmd/twctl/arg"

func main() {
	arg.Execute()
}
