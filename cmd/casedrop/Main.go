package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casedrop/casedrop/cmd/casedrop/cliapi"
	"github.com/casedrop/casedrop/cmd/casedrop/cliconfig"
	"github.com/casedrop/casedrop/cmd/casedrop/cliconstants"
	"github.com/casedrop/casedrop/cmd/casedrop/cliflags"
	"github.com/casedrop/casedrop/internal/auth"
	"github.com/casedrop/casedrop/internal/configuration/cloudconfig"
	"github.com/casedrop/casedrop/internal/environment"
	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/jobstatus"
	"github.com/casedrop/casedrop/internal/logging"
	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/notifications"
	"github.com/casedrop/casedrop/internal/notifications/broker"
	"github.com/casedrop/casedrop/internal/storage/provider"
	"github.com/casedrop/casedrop/internal/upload"
	"golang.org/x/oauth2"
)

var osExit = os.Exit

func main() {
	mode := cliflags.Parse(os.Args)
	if mode == cliflags.ModeInvalid {
		osExit(cliconstants.ExitUsage)
		return
	}
	env := environment.New()
	if helper.FolderExists(env.ConfigDir) {
		logging.Init(env.ConfigDir)
	}
	cliapi.Init(env.StatusApiUrl, env.ApiKey)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case cliflags.ModeLogin:
		doLogin(ctx, &env)
	case cliflags.ModeLogout:
		doLogout(&env)
	case cliflags.ModeUpload:
		processUpload(ctx, &env)
	case cliflags.ModeStatus:
		showStatus(ctx, &env)
	case cliflags.ModeListen:
		listen(ctx, &env)
	case cliflags.ModeCreateCase:
		createCase(ctx)
	case cliflags.ModeCheck:
		check(ctx, &env)
	}
}

func getStore(env *environment.Environment) *cliconfig.Store {
	location, _ := cliflags.GetConfigLocation(os.Args)
	return cliconfig.New(location, env.OidcIssuer)
}

// getAuthenticator returns the static user if set with env variables, otherwise the OIDC login
func getAuthenticator(ctx context.Context, env *environment.Environment) (auth.Authenticator, error) {
	if env.IsStaticUserProvided() {
		return auth.NewStaticUser(env.GetStaticUser())
	}
	if !env.IsOidcProvided() {
		return nil, errors.New("no authentication has been configured, please set CASEDROP_OIDC_ISSUER and CASEDROP_OIDC_CLIENT_ID")
	}
	return auth.NewOidc(ctx, env.OidcIssuer, env.OidcClientId, env.OidcClientSecret, getStore(env))
}

func doLogin(ctx context.Context, env *environment.Environment) {
	if !env.IsOidcProvided() {
		exitWithError(errors.New("login requires CASEDROP_OIDC_ISSUER and CASEDROP_OIDC_CLIENT_ID"), cliconstants.ExitInvalidParameter)
	}
	oidcAuth, err := auth.NewOidc(ctx, env.OidcIssuer, env.OidcClientId, env.OidcClientSecret, getStore(env))
	if err != nil {
		exitWithError(err, cliconstants.ExitRuntimeError)
	}
	user, err := oidcAuth.Login(ctx, func(response *oauth2.DeviceAuthResponse) {
		if response.VerificationURIComplete != "" {
			fmt.Println("To login, open " + response.VerificationURIComplete)
		} else {
			fmt.Println("To login, open " + response.VerificationURI)
		}
		fmt.Println("and enter the code " + response.UserCode)
		fmt.Println()
		fmt.Println("Waiting for authorisation...")
	})
	if err != nil {
		exitWithError(err, cliconstants.ExitRuntimeError)
	}
	logging.LogLogin(user)
	fmt.Println("Login successful, signed in as " + user.Username)
}

func doLogout(env *environment.Environment) {
	err := getStore(env).Delete()
	if err != nil {
		fmt.Println("ERROR: Could not delete configuration file")
		fmt.Println(err)
		osExit(cliconstants.ExitInvalidParameter)
		return
	}
	fmt.Println("Logged out. To login again, run: casedrop login")
}

func processUpload(ctx context.Context, env *environment.Environment) {
	uploadParam := cliflags.GetUploadParameters(os.Args)

	selection := upload.NewSelection()
	err := selection.Select(uploadParam.Files)
	if err != nil {
		exitWithError(err, cliconstants.ExitInvalidParameter)
	}
	// Positions shift after each removal, so remove from the highest position down
	for _, position := range sortedDescending(uploadParam.Exclude) {
		selection.Dismiss(position)
	}

	cConfig, _ := cloudconfig.Load(env)
	store, err := provider.Get(env.StorageBackend, cConfig.Aws)
	if err != nil {
		exitWithError(err, cliconstants.ExitRuntimeError)
	}
	users, err := getAuthenticator(ctx, env)
	if err != nil {
		exitWithError(err, cliconstants.ExitRuntimeError)
	}

	tracker := upload.NewTracker()
	var bar *progressDisplay
	if !uploadParam.JsonOutput && !uploadParam.NoProgress && isTerminal() {
		bar = newProgressDisplay(selection.Len())
		tracker.Subscribe(bar.update)
	}
	coordinator := upload.NewCoordinator(selection, tracker, store, users, upload.Options{
		MaxParallel: env.MaxParallelUploads,
		RateLimit:   env.UploadRateLimit(),
	})
	result, err := coordinator.Upload(ctx, uploadParam.CaseId)
	bar.finish()
	if err != nil {
		fmt.Println()
		fmt.Println("ERROR: " + err.Error())
		cause := upload.Cause(err)
		if cause != nil {
			fmt.Println(cause)
		}
		printProgress(tracker.List())
		osExit(cliconstants.ExitRuntimeError)
		return
	}

	if uploadParam.JsonOutput {
		jsonStr, _ := json.Marshal(result)
		fmt.Println(string(jsonStr))
		return
	}
	fmt.Println(result.Summary())
	for _, file := range result.Files {
		fmt.Println("  " + file.Name + " -> " + file.Key)
	}
}

func printProgress(records []models.ProgressRecord) {
	for _, record := range records {
		fmt.Printf("  [%s] %s (%s, %s) %d%%\n", record.Status, record.Filename, record.FileType, record.FileSize, record.Percentage)
	}
}

func showStatus(ctx context.Context, env *environment.Environment) {
	statusParam := cliflags.GetStatusParameters(os.Args)
	if env.StatusApiUrl == "" {
		exitWithError(cliapi.ErrNotConfigured, cliconstants.ExitInvalidParameter)
	}
	poller := jobstatus.NewPoller(env.StatusApiUrl, env.PollInterval(), nil)
	if !statusParam.Watch {
		status, err := poller.Fetch(ctx, statusParam.CaseId)
		if err != nil {
			exitWithError(err, cliconstants.ExitRuntimeError)
		}
		printStatus(status)
		return
	}
	_, err := poller.Poll(ctx, statusParam.CaseId, printStatus)
	if err != nil && !errors.Is(err, context.Canceled) {
		exitWithError(err, cliconstants.ExitRuntimeError)
	}
}

func printStatus(status models.JobStatus) {
	updated := "unknown"
	if status.Timestamp != 0 {
		updated = time.UnixMilli(status.Timestamp).Format(time.DateTime)
	}
	fmt.Printf("[%s] Case %s: %s (last update: %s)\n", jobstatus.Indicator(status.Status), status.CaseId, status.Status, updated)
}

func listen(ctx context.Context, env *environment.Environment) {
	cConfig, _ := cloudconfig.Load(env)
	if !cConfig.Broker.IsProvided() {
		exitWithError(errors.New("no broker has been configured, please set CASEDROP_BROKER_URL"), cliconstants.ExitInvalidParameter)
	}
	transport, err := broker.New(cConfig.Broker)
	if err != nil {
		exitWithError(err, cliconstants.ExitInvalidParameter)
	}
	defer transport.Close()

	feed := notifications.NewFeed()
	feed.Subscribe(func(notification models.Notification) {
		fmt.Printf("%s [%s] %s\n", notification.Timestamp.Local().Format(time.DateTime), notification.Priority, notification.Message)
	})
	listener := notifications.NewListener(transport, feed, notifications.ListenerOptions{
		Topic:      cConfig.Broker.Topic,
		MaxRetries: env.ReconnectRetries,
		Delay:      env.ReconnectDelay(),
		OnError: func(err error, attempt, maxRetries int) {
			fmt.Printf("Connection error (attempt %d of %d): %v\n", attempt, maxRetries, err)
		},
	})
	fmt.Println("Listening for notifications on topic " + cConfig.Broker.Topic)
	err = listener.Run(ctx)
	if err != nil {
		exitWithError(err, cliconstants.ExitRuntimeError)
	}
}

func createCase(ctx context.Context) {
	caseParam := cliflags.GetCaseParameters(os.Args)
	result, err := cliapi.CreateCase(ctx, caseParam.Title, caseParam.Description)
	if err != nil {
		exitWithError(err, cliconstants.ExitRuntimeError)
	}
	if caseParam.JsonOutput {
		jsonStr, _ := json.Marshal(result)
		fmt.Println(string(jsonStr))
		return
	}
	fmt.Println("Case created")
	fmt.Println("Case ID: " + result.CaseId)
	if result.UploadUrl != "" {
		fmt.Println("Upload URL: " + result.UploadUrl)
	}
	fmt.Println("To upload files, run: casedrop upload --case " + result.CaseId + " -f /file/to/upload")
}

// check tests all configured services and exits with an error if one of them is not working
func check(ctx context.Context, env *environment.Environment) {
	failed := false
	printResult := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Println(name + ": FAIL (" + err.Error() + ")")
			return
		}
		fmt.Println(name + ": OK")
	}

	cConfig, _ := cloudconfig.Load(env)
	store, err := provider.Get(env.StorageBackend, cConfig.Aws)
	if err == nil {
		err = store.IsValidLogin(ctx)
	}
	printResult("Object storage", err)

	users, err := getAuthenticator(ctx, env)
	if err == nil {
		var user models.UserInfo
		user, err = users.CurrentUser(ctx)
		if err == nil {
			fmt.Println("Signed in as " + user.Username + " (" + user.Email + ")")
		}
	}
	printResult("Authentication", err)

	_, err = cliapi.ListCases(ctx)
	printResult("Status API", err)

	printResult("Notification broker", checkBroker(ctx, cConfig.Broker))

	if failed {
		osExit(cliconstants.ExitRuntimeError)
	}
}

func checkBroker(ctx context.Context, config models.BrokerConfig) error {
	if !config.IsProvided() {
		return errors.New("not configured")
	}
	transport, err := broker.New(config)
	if err != nil {
		return err
	}
	defer transport.Close()
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	return transport.Ping(ctx)
}

func exitWithError(err error, exitCode int) {
	fmt.Println("ERROR: " + err.Error())
	osExit(exitCode)
}
