package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"crm-dialer/internal/apiserver"
)

var Version string

func main() {
	fmt.Println("crm-dialer: CRM webhook to Plivo call relay")
	fmt.Println("Version: ", Version)

	config, err := apiserver.LoadConfig(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := apiserver.Start(config); err != nil {
		log.Fatal(err)
	}
}
