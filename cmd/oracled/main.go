package main

import "github.com/LeJamon/goPriceOracle/internal/cli"

func main() {
	cli.Execute()
}
