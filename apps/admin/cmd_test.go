package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/grading"
	"github.com/trezcool/reportcard/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	validate, translator := testutil.NewValidator()
	out := new(bytes.Buffer)
	return &commandLine{
		openDB:     func() (*sql.DB, error) { return nil, nil },
		out:        out,
		policy:     grading.DefaultPolicy(),
		validate:   validate,
		translator: translator,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, want an error")
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "subjects: no grade", args: []string{"subjects"}, wantErr: errHelp},
		{name: "render: no input", args: []string{"render"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_teacher_remark", "sql"}},
	})
}

func Test_commandLine_subjects(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "unknown grade", args: []string{"subjects", "-grade", "12"}, wantErrStr: `unknown grade "12"`},
		{name: "jhs", args: []string{"subjects", "-grade", "basic 7"}},
	})
	assert.Contains(t, out.String(), "Grade 7:\n")
	assert.Contains(t, out.String(), "  - Social Studies\n")
	assert.NotContains(t, out.String(), "OWOP")
}

const rosterYAML = `
school:
  name: Sunrise Academy
  location: Kumasi
  grade: "7"
  semester: First Term
  vacating_date: "2024-12-20"
  reopening_date: "2025-01-08"
students:
  - name: Kofi
    subjects:
      - {subject: Mathematics, class_score: 40, exam_score: 50}
  - name: Ama
    subjects:
      - {subject: Mathematics, class_score: 80, exam_score: 70}
`

func Test_commandLine_render(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "roster.yaml")
	require.NoError(t, ioutil.WriteFile(input, []byte(rosterYAML), 0600))
	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, ioutil.WriteFile(invalid, []byte(strings.Replace(rosterYAML, "exam_score: 70", "exam_score: 170", 1)), 0600))
	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, ioutil.WriteFile(missing, []byte(strings.Replace(rosterYAML, ", exam_score: 70", "", 1)), 0600))
	output := filepath.Join(dir, "report.pdf")

	var termChecks int
	isTerminalFunc = func(fd int) bool {
		termChecks++
		return false
	}

	t.Run("console and pdf", func(t *testing.T) {
		cli, out := setup(t)
		require.NoError(t, cli.run([]string{"admin", "render", "-input", input, "-output", output}))

		text := out.String()
		assert.Contains(t, text, "=== Sunrise Academy ===")
		assert.Contains(t, text, "Grade: Grade 7 | Semester: First Term")
		assert.Less(t, strings.Index(text, "Ama"), strings.Index(text, "Kofi"))
		assert.Contains(t, text, "Report saved to "+output)
		assert.NotContains(t, text, "\x1b[", "no colors outside a terminal")
		assert.Equal(t, 1, termChecks)

		pdf, err := ioutil.ReadFile(output)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	})

	t.Run("console only", func(t *testing.T) {
		cli, out := setup(t)
		require.NoError(t, cli.run([]string{"admin", "render", "-input", input}))
		assert.NotContains(t, out.String(), "Report saved to")
	})

	t.Run("missing file", func(t *testing.T) {
		cli, _ := setup(t)
		assert.Error(t, cli.run([]string{"admin", "render", "-input", filepath.Join(dir, "nope.yaml")}))
	})

	t.Run("invalid scores", func(t *testing.T) {
		cli, out := setup(t)
		err := cli.run([]string{"admin", "render", "-input", invalid})
		require.Error(t, err)
		assert.True(t, core.IsValidationError(err))
		assert.Empty(t, out.String())
	})

	t.Run("missing score", func(t *testing.T) {
		cli, out := setup(t)
		err := cli.run([]string{"admin", "render", "-input", missing})
		require.Error(t, err)

		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, []core.FieldError{{Field: "students[1].subjects[0].exam_score", Error: "this field is required"}}, vErr.Fields)
		assert.Empty(t, out.String())
	})
}
