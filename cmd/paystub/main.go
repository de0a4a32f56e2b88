package main

import "github.com/evmosdao/paystub/internal/interfaces/cli"

func main() {
	cli.Execute()
}
