package cliflags

import (
	"testing"

	"github.com/casedrop/casedrop/cmd/casedrop/cliconstants"
	"github.com/casedrop/casedrop/internal/test"
)

var exitCode int

func TestMain(m *testing.M) {
	osExit = func(code int) { exitCode = code }
	m.Run()
}

func TestParse(t *testing.T) {
	test.IsEqualInt(t, Parse([]string{"casedrop", "login"}), ModeLogin)
	test.IsEqualInt(t, Parse([]string{"casedrop", "logout"}), ModeLogout)
	test.IsEqualInt(t, Parse([]string{"casedrop", "upload"}), ModeUpload)
	test.IsEqualInt(t, Parse([]string{"casedrop", "status"}), ModeStatus)
	test.IsEqualInt(t, Parse([]string{"casedrop", "listen"}), ModeListen)
	test.IsEqualInt(t, Parse([]string{"casedrop", "create-case"}), ModeCreateCase)
	test.IsEqualInt(t, Parse([]string{"casedrop", "check"}), ModeCheck)
	exitCode = 0
	test.IsEqualInt(t, Parse([]string{"casedrop", "invalid"}), ModeInvalid)
	test.IsEqualInt(t, exitCode, cliconstants.ExitUsage)
	test.IsEqualInt(t, Parse([]string{"casedrop"}), ModeInvalid)
}

func TestGetUploadParameters(t *testing.T) {
	exitCode = 0
	config := GetUploadParameters([]string{"casedrop", "upload", "-c", "config.json", "--case", "case-1",
		"-f", "a.pdf", "--file", "b.png", "--exclude", "1", "--json", "--no-progress"})
	test.IsEqualInt(t, exitCode, 0)
	test.IsEqualString(t, config.CaseId, "case-1")
	test.IsEqualInt(t, len(config.Files), 2)
	test.IsEqualString(t, config.Files[0], "a.pdf")
	test.IsEqualString(t, config.Files[1], "b.png")
	test.IsEqualInt(t, len(config.Exclude), 1)
	test.IsEqualInt(t, config.Exclude[0], 1)
	test.IsEqualBool(t, config.JsonOutput, true)
	test.IsEqualBool(t, config.NoProgress, true)

	GetUploadParameters([]string{"casedrop", "upload", "--case", "case-1"})
	test.IsEqualInt(t, exitCode, cliconstants.ExitInvalidParameter)
	exitCode = 0
	GetUploadParameters([]string{"casedrop", "upload", "-f", "a.pdf"})
	test.IsEqualInt(t, exitCode, cliconstants.ExitInvalidParameter)
	exitCode = 0
	GetUploadParameters([]string{"casedrop", "upload", "-i", "case", "-f", "a.pdf", "--exclude", "x"})
	test.IsEqualInt(t, exitCode, cliconstants.ExitInvalidParameter)
	exitCode = 0
	GetUploadParameters([]string{"casedrop", "upload", "-i", "case", "-f"})
	test.IsEqualInt(t, exitCode, cliconstants.ExitUsage)
}

func TestGetStatusParameters(t *testing.T) {
	exitCode = 0
	config := GetStatusParameters([]string{"casedrop", "status", "--case", "case-1", "--watch"})
	test.IsEqualString(t, config.CaseId, "case-1")
	test.IsEqualBool(t, config.Watch, true)
	test.IsEqualInt(t, exitCode, 0)
	config = GetStatusParameters([]string{"casedrop", "status", "-i", "case-2"})
	test.IsEqualBool(t, config.Watch, false)
	GetStatusParameters([]string{"casedrop", "status"})
	test.IsEqualInt(t, exitCode, cliconstants.ExitInvalidParameter)
}

func TestGetCaseParameters(t *testing.T) {
	config := GetCaseParameters([]string{"casedrop", "create-case", "--title", "Title", "--description", "Text", "--json"})
	test.IsEqualString(t, config.Title, "Title")
	test.IsEqualString(t, config.Description, "Text")
	test.IsEqualBool(t, config.JsonOutput, true)
}

func TestGetConfigLocation(t *testing.T) {
	location, isDefault := GetConfigLocation([]string{"casedrop", "login"})
	test.IsEqualString(t, location, cliconstants.DefaultConfigFileName)
	test.IsEqualBool(t, isDefault, true)
	location, isDefault = GetConfigLocation([]string{"casedrop", "login", "-c", "/tmp/config.json"})
	test.IsEqualString(t, location, "/tmp/config.json")
	test.IsEqualBool(t, isDefault, false)
}
