package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/reportcard/core/grading"
	"github.com/trezcool/reportcard/core/report"
	rendersvc "github.com/trezcool/reportcard/services/render"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	openDB     func() (*sql.DB, error)
	out        io.Writer
	outFd      int
	policy     grading.Policy
	validate   *validator.Validate
	translator ut.Translator
}

// rosterFile is the YAML document read by the render command.
type rosterFile struct {
	School        report.School         `yaml:"school"`
	TeacherRemark string                `yaml:"teacher_remark"`
	Students      []report.StudentInput `yaml:"students"`
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                    - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  subjects -grade GRADE                     - list the default subjects of a grade")
	fmt.Fprintln(cli.out, "  render -input ROSTER.yaml [-output FILE]  - print a roster's ranked report, optionally saving the PDF")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	subjectsCmd := flag.NewFlagSet("subjects", flag.ExitOnError)
	subjectsGrade := subjectsCmd.String("grade", "", "The grade, e.g. \"7\" or \"Grade 7\".")

	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	renderInput := renderCmd.String("input", "", "The YAML roster to compute.")
	renderOutput := renderCmd.String("output", "", "Where to save the PDF report (optional).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "subjects":
		if err := subjectsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *subjectsGrade == "" {
			subjectsCmd.Usage()
			return errHelp
		}
		return cli.subjects(*subjectsGrade)
	case "render":
		if err := renderCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *renderInput == "" {
			renderCmd.Usage()
			return errHelp
		}
		return cli.render(*renderInput, *renderOutput)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) subjects(grade string) error {
	subjects, ok := report.Subjects(grade)
	if !ok {
		return fmt.Errorf("unknown grade %q", grade)
	}
	name, _ := report.NormalizeGrade(grade)
	fmt.Fprintf(cli.out, "%s:\n", name)
	for _, s := range subjects {
		fmt.Fprintf(cli.out, "  - %s\n", s)
	}
	return nil
}

func (cli *commandLine) render(input, output string) error {
	data, err := ioutil.ReadFile(input)
	if err != nil {
		return err
	}
	var roster rosterFile
	if err = yaml.Unmarshal(data, &roster); err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	// rendering never stores nor mails anything
	svc := report.NewService(nil, rendersvc.NewPDFRenderer(), nil, cli.policy, cli.validate, cli.translator)
	rep, err := svc.Preview(report.NewReport{
		School:        roster.School,
		Students:      roster.Students,
		TeacherRemark: roster.TeacherRemark,
	})
	if err != nil {
		return err
	}

	console := rendersvc.NewConsoleRenderer(isTerminalFunc(cli.outFd))
	if err = console.Render(cli.out, rep); err != nil {
		return err
	}
	if output == "" {
		return nil
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err = rendersvc.NewPDFRenderer().Render(f, rep); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Report saved to %s\n", output)
	return nil
}
