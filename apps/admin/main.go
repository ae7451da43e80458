package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/learntocloud/ltc-backend/core"
	"github.com/learntocloud/ltc-backend/core/badge"
	"github.com/learntocloud/ltc-backend/core/curriculum"
	"github.com/learntocloud/ltc-backend/core/handson"
	"github.com/learntocloud/ltc-backend/core/progress"
	emailsvc "github.com/learntocloud/ltc-backend/services/email"
	"github.com/learntocloud/ltc-backend/storage/database"
	sqlxrepos "github.com/learntocloud/ltc-backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	sdb := sqlx.NewDb(db, "postgres")

	catalog, err := curriculum.Load()
	errAndDie(err)

	// set up services; mails go to the console from the CLI
	mailSvc := emailsvc.NewConsoleService(conf)
	handsOnSvc := handson.NewService(catalog, sqlxrepos.NewHandsOnRepository(sdb), handson.NewGithubVerifier(), nil)
	progressSvc := progress.NewService(catalog, sqlxrepos.NewProgressRepository(sdb), handsOnSvc, nil, conf)
	badgeSvc := badge.NewService(catalog, sqlxrepos.NewBadgeRepository(sdb), progressSvc, mailSvc, conf)

	// start CLI
	cli := commandLine{
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(sdb),
		badgeSvc: badgeSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
