package main

/**
Main routine of the cases API server
*/

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/casedrop/casedrop/internal/configuration/cloudconfig"
	"github.com/casedrop/casedrop/internal/configuration/database"
	"github.com/casedrop/casedrop/internal/environment"
	"github.com/casedrop/casedrop/internal/environment/flagparser"
	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/logging"
	"github.com/casedrop/casedrop/internal/notifications"
	"github.com/casedrop/casedrop/internal/notifications/broker"
	"github.com/casedrop/casedrop/internal/webserver"
	"github.com/casedrop/casedrop/internal/webserver/api"
)

// versionServer is the current version in readable form.
const versionServer = "1.0.0"

var osExit = os.Exit

func main() {
	passedFlags := flagparser.ParseFlags(os.Args[1:])
	showVersion(passedFlags)
	fmt.Println("casedrop-server v" + versionServer + " starting")

	env := environment.New()
	env.ApplyFlags(passedFlags)
	helper.CreateDir(env.ConfigDir)
	helper.CreateDir(env.DataDir)
	logging.Init(env.ConfigDir)

	dbConfig, err := database.ParseUrl(env.DatabaseUrl)
	if err != nil {
		fmt.Println("ERROR: " + err.Error())
		osExit(2)
		return
	}
	database.Connect(dbConfig)

	transport, notifier := initBroker(&env)
	logging.LogStartup(versionServer)
	go webserver.Start(&env, notifier)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	shutdown(transport)
	osExit(0)
}

// initBroker connects the status publisher if a broker has been configured
func initBroker(env *environment.Environment) (broker.Transport, api.StatusNotifier) {
	cConfig, _ := cloudconfig.Load(env)
	if !cConfig.Broker.IsProvided() {
		fmt.Println("No broker configured, status changes are not published")
		return nil, nil
	}
	transport, err := broker.New(cConfig.Broker)
	if err != nil {
		fmt.Println("ERROR: " + err.Error())
		osExit(2)
		return nil, nil
	}
	fmt.Println("Publishing status changes to topic " + cConfig.Broker.Topic)
	return transport, notifications.NewStatusPublisher(transport, cConfig.Broker.Topic)
}

func shutdown(transport broker.Transport) {
	fmt.Println("Shutting down...")
	webserver.Shutdown()
	if transport != nil {
		_ = transport.Close()
	}
	logging.LogShutdown()
	database.Close()
}

func showVersion(passedFlags flagparser.MainFlags) {
	if !passedFlags.ShowVersion {
		return
	}
	fmt.Println("casedrop-server v" + versionServer)
	fmt.Println()
	fmt.Println("Builder: " + environment.Builder)
	fmt.Println("Build Date: " + environment.BuildTime)
	info, ok := debug.ReadBuildInfo()
	if ok {
		fmt.Println("Go Version: " + info.GoVersion)
		parseBuildSettings(info.Settings)
	} else {
		fmt.Println("Go Version: unknown")
	}
	osExit(0)
}

func parseBuildSettings(infos []debug.BuildSetting) {
	lookups := []struct{ key, name string }{
		{"vcs.revision", "Git Commit"},
		{"vcs.time", "Git Commit Timestamp"},
		{"GOARCH", "Architecture"},
		{"GOOS", "Operating System"},
	}
	for _, lookup := range lookups {
		result := "Not found"
		for _, buildSetting := range infos {
			if buildSetting.Key == lookup.key {
				result = buildSetting.Value
				break
			}
		}
		fmt.Println(lookup.name + ": " + result)
	}
}
