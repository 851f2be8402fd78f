package flagparser

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// ParseFlags reads the passed program arguments
func ParseFlags(args []string) MainFlags {
	var aliases []alias

	passedFlags := flag.FlagSet{}
	passedFlags.SetOutput(io.Discard)
	versionFlagLong := passedFlags.Bool("version", false, "Show version info")
	versionFlagShort := passedFlags.Bool("v", false, "alias")
	aliases = append(aliases, alias{
		Long:  "version",
		Short: "v",
	})
	configDirFlagLong := passedFlags.String("config-dir", "", "Sets the config directory. Same as env variable CASEDROP_CONFIG_DIR")
	configDirFlagShort := passedFlags.String("cd", "", "alias")
	aliases = append(aliases, alias{
		Long:  "config-dir",
		Short: "cd",
	})
	dataDirFlagLong := passedFlags.String("data", "", "Sets the data directory. Same as env variable CASEDROP_DATA_DIR")
	dataDirFlagShort := passedFlags.String("d", "", "alias")
	aliases = append(aliases, alias{
		Long:  "data",
		Short: "d",
	})
	portFlagLong := passedFlags.Int("port", 0, "Sets the port of the webserver. Same as env variable CASEDROP_PORT")
	portFlagShort := passedFlags.Int("p", 0, "alias")
	aliases = append(aliases, alias{
		Long:  "port",
		Short: "p",
	})
	databaseFlag := passedFlags.String("database", "", "Sets the database URL, e.g. sqlite://data/casedrop.sqlite or redis://localhost:6379.\n"+
		"                               Same as env variable CASEDROP_DATABASE_URL")

	passedFlags.Usage = showUsage(passedFlags, aliases)
	err := passedFlags.Parse(args)

	if err != nil {
		if err == flag.ErrHelp {
			passedFlags.Usage()
			osExit(0)
			return MainFlags{}
		}
		fmt.Println(err)
		osExit(2)
		return MainFlags{}
	}

	result := MainFlags{
		ShowVersion: *versionFlagShort || *versionFlagLong,
		ConfigDir:   getAliasedString(configDirFlagLong, configDirFlagShort),
		DataDir:     getAliasedString(dataDirFlagLong, dataDirFlagShort),
		Port:        getAliasedInt(portFlagLong, portFlagShort),
		DatabaseUrl: *databaseFlag,
	}
	result.setBoolValues()
	return result
}

func showUsage(flags flag.FlagSet, aliases []alias) func() {
	return func() {
		fmt.Print("Usage:\n\n")
		flags.VisitAll(func(f *flag.Flag) {
			if isAlias(f.Name, aliases) {
				return
			}
			output := "--" + f.Name
			aliasExists, aliasName := hasAlias(f.Name, aliases)
			if aliasExists {
				output = "-" + aliasName + ", " + output
			}
			if f.DefValue == "" {
				output = output + " <string>"
			}
			if f.DefValue == "0" {
				output = output + " <int>"
			}
			fmt.Printf("%-30s %s\n", output, f.Usage)
		})
	}
}

func getAliasedString(flag1, flag2 *string) string {
	if *flag1 != "" {
		return *flag1
	}
	return *flag2
}
func getAliasedInt(flag1, flag2 *int) int {
	if *flag1 != 0 {
		return *flag1
	}
	return *flag2
}

// MainFlags holds info for the parsed program arguments
type MainFlags struct {
	ShowVersion      bool
	ConfigDir        string
	DataDir          string
	Port             int
	DatabaseUrl      string
	IsConfigDirSet   bool
	IsDataDirSet     bool
	IsPortSet        bool
	IsDatabaseUrlSet bool
}

func (mf *MainFlags) setBoolValues() {
	mf.IsConfigDirSet = mf.ConfigDir != ""
	mf.IsDataDirSet = mf.DataDir != ""
	mf.IsPortSet = mf.Port != 0
	mf.IsDatabaseUrlSet = mf.DatabaseUrl != ""
}

type alias struct {
	Long  string
	Short string
}

func isAlias(value string, aliases []alias) bool {
	for _, name := range aliases {
		if name.Short == value {
			return true
		}
	}
	return false
}
func hasAlias(value string, aliases []alias) (bool, string) {
	for _, name := range aliases {
		if name.Long == value {
			return true, name.Short
		}
	}
	return false, ""
}

var osExit = os.Exit
