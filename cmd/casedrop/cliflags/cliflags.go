package cliflags

import (
	"fmt"
	"os"
	"strconv"

	"github.com/casedrop/casedrop/cmd/casedrop/cliconstants"
)

const (
	ModeLogin = iota
	ModeLogout
	ModeUpload
	ModeStatus
	ModeListen
	ModeCreateCase
	ModeCheck
	ModeInvalid
)

var osExit = os.Exit

// UploadConfig contains the parameters of the upload command
type UploadConfig struct {
	CaseId     string
	Files      []string
	Exclude    []int
	JsonOutput bool
	NoProgress bool
}

// StatusConfig contains the parameters of the status command
type StatusConfig struct {
	CaseId string
	Watch  bool
}

// CaseConfig contains the parameters of the create-case command
type CaseConfig struct {
	Title       string
	Description string
	JsonOutput  bool
}

// Parse returns the mode of the passed arguments, args[0] being the program name
func Parse(args []string) int {
	if len(args) < 2 {
		printUsage()
		return ModeInvalid
	}
	switch args[1] {
	case "login":
		return ModeLogin
	case "logout":
		return ModeLogout
	case "upload":
		return ModeUpload
	case "status":
		return ModeStatus
	case "listen":
		return ModeListen
	case "create-case":
		return ModeCreateCase
	case "check":
		return ModeCheck
	default:
		printUsage()
		return ModeInvalid
	}
}

// GetUploadParameters parses the arguments of the upload command
func GetUploadParameters(args []string) UploadConfig {
	result := UploadConfig{}
	for i := 2; i < len(args); i++ {
		switch args[i] {
		case "--json":
			result.JsonOutput = true
		case "--no-progress":
			result.NoProgress = true
		case "-f", "--file":
			result.Files = append(result.Files, getParameter(args, &i))
		case "-i", "--case":
			result.CaseId = getParameter(args, &i)
		case "--exclude":
			result.Exclude = append(result.Exclude, requireInt(getParameter(args, &i)))
		case "-c":
			i++
		}
	}
	if len(result.Files) == 0 {
		fmt.Println("ERROR: Missing parameter -f")
		osExit(cliconstants.ExitInvalidParameter)
	}
	if result.CaseId == "" {
		fmt.Println("ERROR: Missing parameter --case")
		osExit(cliconstants.ExitInvalidParameter)
	}
	return result
}

// GetStatusParameters parses the arguments of the status command
func GetStatusParameters(args []string) StatusConfig {
	result := StatusConfig{}
	for i := 2; i < len(args); i++ {
		switch args[i] {
		case "-i", "--case":
			result.CaseId = getParameter(args, &i)
		case "-w", "--watch":
			result.Watch = true
		}
	}
	if result.CaseId == "" {
		fmt.Println("ERROR: Missing parameter --case")
		osExit(cliconstants.ExitInvalidParameter)
	}
	return result
}

// GetCaseParameters parses the arguments of the create-case command
func GetCaseParameters(args []string) CaseConfig {
	result := CaseConfig{}
	for i := 2; i < len(args); i++ {
		switch args[i] {
		case "--title":
			result.Title = getParameter(args, &i)
		case "--description":
			result.Description = getParameter(args, &i)
		case "--json":
			result.JsonOutput = true
		}
	}
	return result
}

// GetConfigLocation returns the path of the login file and true if it is the default location
func GetConfigLocation(args []string) (string, bool) {
	for i := 2; i < len(args); i++ {
		if args[i] == "-c" {
			return getParameter(args, &i), false
		}
	}
	return cliconstants.DefaultConfigFileName, true
}

func getParameter(args []string, position *int) string {
	*position++
	if *position >= len(args) {
		printUsage()
		osExit(cliconstants.ExitUsage)
		return ""
	}
	return args[*position]
}

func requireInt(input string) int {
	result, err := strconv.Atoi(input)
	if err != nil {
		fmt.Println("ERROR: " + input + " is not a valid integer")
		osExit(cliconstants.ExitInvalidParameter)
	}
	return result
}

func printUsage() {
	fmt.Println("casedrop v" + cliconstants.Version)
	fmt.Println()
	fmt.Println("Valid options are:")
	fmt.Println("   casedrop login [-c /path/to/config]")
	fmt.Println("   casedrop logout [-c /path/to/config]")
	fmt.Println("   casedrop upload --case CASEID -f /file/to/upload [-f /another/file]\n" +
		"                   [--exclude INT] [--json] [--no-progress] [-c /path/to/config]")
	fmt.Println("   casedrop status --case CASEID [--watch]")
	fmt.Println("   casedrop listen [-c /path/to/config]")
	fmt.Println("   casedrop create-case [--title STRING] [--description STRING] [--json]")
	fmt.Println("   casedrop check [-c /path/to/config]")
	fmt.Println()
	fmt.Println("casedrop upload:")
	fmt.Println("--case         The case the files belong to")
	fmt.Println("-f             A file to upload, can be passed multiple times")
	fmt.Println("--exclude      Removes the file at this position (starting with 0) from the selection")
	fmt.Println("--json         Outputs the result as JSON only")
	fmt.Println("--no-progress  Does not show a progress bar")
	fmt.Println()
	fmt.Println("casedrop status:")
	fmt.Println("--watch        Polls the status until the job has finished")
	osExit(cliconstants.ExitUsage)
}
