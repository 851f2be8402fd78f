package main

/**
Prints all cases of a database as JSON
*/

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/casedrop/casedrop/internal/configuration/database"
	"github.com/casedrop/casedrop/internal/helper"
)

var osExit = os.Exit

func main() {
	if len(os.Args) < 2 || os.Args[1] == "" {
		fmt.Println("Usage: databasereader sqlite://path/to/casedrop.sqlite | redis://host:port")
		osExit(1)
		return
	}
	input := os.Args[1]
	if !strings.Contains(input, "://") {
		input = "sqlite://" + input
	}
	config, err := database.ParseUrl(input)
	if err != nil {
		fmt.Println(err)
		osExit(1)
		return
	}
	if strings.HasPrefix(input, "sqlite://") && !helper.FileExists(config.HostUrl) {
		fmt.Println("Database file " + config.HostUrl + " does not exist")
		osExit(1)
		return
	}
	database.Connect(config)
	defer database.Close()
	for _, existingCase := range database.GetAllCases() {
		result, err := json.MarshalIndent(existingCase, "", "  ")
		if err != nil {
			log.Fatal("Error encoding case: ", err)
		}
		fmt.Println(string(result))
		fmt.Println()
	}
}
