package main

import (
	"github.com/trezcool/reportcard/storage/database"
)

var gooseRunFunc = database.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return err
	}
	return gooseRunFunc(db, args[0], args[1:]...)
}
