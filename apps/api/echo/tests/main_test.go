package tests

import (
	"io/ioutil"
	"log"
	"os"
	"testing"

	. "github.com/trezcool/reportcard/apps/api/echo"
	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/grading"
	"github.com/trezcool/reportcard/core/report"
	"github.com/trezcool/reportcard/services/email"
	"github.com/trezcool/reportcard/services/logger"
	"github.com/trezcool/reportcard/services/render"
	"github.com/trezcool/reportcard/storage/database/dummy"
	"github.com/trezcool/reportcard/tests"
)

var (
	db   *dummydb.DB
	repo report.Repository
	app  *Server
)

func TestMain(m *testing.M) {
	conf := &core.Config{AppName: "Report Card", Env: "TEST", TestMode: true}

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)

	// set up DB & repos
	db, _ = dummydb.Open()
	repo = dummydb.NewReportRepository(db)

	// set up services
	validate, translator := testutil.NewValidator()
	reportSvc := report.NewService(
		repo,
		rendersvc.NewPDFRenderer(),
		emailsvc.NewConsoleServiceMock(conf),
		grading.DefaultPolicy(),
		validate,
		translator,
	)

	// set up server
	app = NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Conf:           conf,
			Logger:         logger,
			ReportSvc:      reportSvc,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	os.Exit(m.Run())
}
