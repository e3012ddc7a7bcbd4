package main

import (
	"fmt"
	"os"

	fulfillment "github.com/kaytu-io/fulfillment"
)

func main() {
	if err := fulfillment.Command().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
