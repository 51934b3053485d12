package main

import (
	"database/sql"
	"errors"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/grading"
	"github.com/trezcool/reportcard/core/report"
	"github.com/trezcool/reportcard/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	policy, err := grading.PolicyFromConfig(conf.Grading)
	errAndDie(err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	report.InitValidators(validate, translator)

	// the database is only opened by commands that need it
	var db *sql.DB
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	// start CLI
	cli := commandLine{
		openDB: func() (*sql.DB, error) {
			var err error
			db, err = database.Open(conf)
			return db, err
		},
		out:        os.Stdout,
		outFd:      int(os.Stdout.Fd()),
		policy:     policy,
		validate:   validate,
		translator: translator,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
			var vErr *core.ValidationError
			if errors.As(err, &vErr) {
				for _, f := range vErr.Fields {
					logger.Printf("  %s: %s\n", f.Field, f.Error)
				}
			}
		}
		if db != nil {
			_ = db.Close()
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
