package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/chittoor-drda/chds-app/chds/chdscli"
)

func main() {
	if err := chdscli.GetApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
