package webserver

/**
Handling of webserver and requests
*/

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/casedrop/casedrop/internal/environment"
	"github.com/casedrop/casedrop/internal/webserver/api"
	"github.com/casedrop/casedrop/internal/webserver/headers"
	"github.com/casedrop/casedrop/internal/webserver/sse"
)

const timeOutWebserverRead = 15 * time.Minute
const timeOutWebserverWrite = 12 * time.Hour

var srv http.Server

// Start the webserver on the port set in the environment. Blocks until Shutdown is called
func Start(env *environment.Environment, notifier api.StatusNotifier) {
	api.Init(env.ApiKey, env.UploadUrl, notifier)
	srv = http.Server{
		Addr:         ":" + strconv.Itoa(env.WebserverPort),
		ReadTimeout:  timeOutWebserverRead,
		WriteTimeout: timeOutWebserverWrite,
		Handler:      newHandler(),
	}
	fmt.Println("Binding webserver to " + srv.Addr)
	if env.ApiKey == "" {
		fmt.Println("WARNING: No API key set, status changes are accepted without authentication")
	}
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func newHandler() http.Handler {
	apiMux := http.NewServeMux()
	api.RegisterRoutes(apiMux)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", sse.GetStatusSSE)
	mux.Handle("/", gziphandler.GzipHandler(apiMux))
	return headers.Cors(mux)
}

// Shutdown closes the webserver gracefully
func Shutdown() {
	sse.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	if err != nil {
		log.Println(err)
	}
}
