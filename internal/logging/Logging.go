package logging

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/casedrop/casedrop/internal/environment"
	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
)

// logPath is empty until Init has been called, entries are then only written to stdout if enabled
var logPath = ""
var mutex sync.Mutex

const categoryInfo = "info"
const categoryUpload = "upload"
const categoryNotification = "notification"
const categoryStatus = "status"
const categoryAuth = "authentication"
const categoryWarning = "warning"

var outputToStdout = false

// Init sets the path where to write the log file to
func Init(filePath string) {
	logPath = filePath + "/log.txt"
	env := environment.New()
	outputToStdout = env.LogToStdout
}

// GetAll returns all log entries as a single string and if the log file exists
func GetAll(reverse bool) (string, bool) {
	if logPath != "" && helper.FileExists(logPath) {
		mutex.Lock()
		content, err := os.ReadFile(logPath)
		mutex.Unlock()
		helper.Check(err)
		result := string(content)
		if reverse {
			result = reverseLogFile(result)
		}
		return result, true
	}
	return fmt.Sprintf("[%s] No log file found!", categoryWarning), false
}

// createLogEntry adds a line to the logfile including the current date. Also outputs to Stdout if set.
func createLogEntry(category, text string, blocking bool) {
	output := createLogFormat(category, text)
	if outputToStdout {
		fmt.Println(output)
	}
	if logPath == "" {
		return
	}
	if blocking {
		writeToFile(output)
	} else {
		go writeToFile(output)
	}
}

func createLogFormat(category, text string) string {
	return fmt.Sprintf("%s   [%s] %s", getDate(), category, text)
}

// LogStartup adds a log entry to indicate that the server has started. Non-blocking
func LogStartup(version string) {
	createLogEntry(categoryInfo, "casedrop server v"+version+" started", false)
}

// LogShutdown adds a log entry to indicate that the server is shutting down. Blocking call
func LogShutdown() {
	createLogEntry(categoryInfo, "casedrop server shutting down", true)
}

// LogUploadStarted adds a log entry when a batch of uploads was started. Non-blocking
func LogUploadStarted(caseId string, fileCount int, user models.UserInfo) {
	createLogEntry(categoryUpload, fmt.Sprintf("Uploading %d file(s) for case %s, started by %s (%s)",
		fileCount, caseId, user.Username, user.Sub), false)
}

// LogUpload adds a log entry when a file was uploaded. Non-blocking
func LogUpload(file models.UploadCandidate, key string) {
	createLogEntry(categoryUpload, fmt.Sprintf("%s (%s) uploaded to %s", file.Name, file.FormattedSize(), key), false)
}

// LogUploadFailed adds a log entry when an upload failed. Blocking
func LogUploadFailed(file models.UploadCandidate, err error) {
	createLogEntry(categoryWarning, fmt.Sprintf("Upload of %s failed: %s", file.Name, err.Error()), true)
}

// LogNotification adds a log entry for a received notification. Non-blocking
func LogNotification(notification models.Notification) {
	createLogEntry(categoryNotification, fmt.Sprintf("[%s] %s (ID %s)", notification.Priority,
		notification.Message, notification.MessageId), false)
}

// LogSubscriptionError adds a log entry when the subscription to the topic failed. Non-blocking
func LogSubscriptionError(topic string, err error, attempt, maxRetries int) {
	createLogEntry(categoryWarning, fmt.Sprintf("Subscription to %s failed (attempt %d of %d): %s",
		topic, attempt, maxRetries, err.Error()), false)
}

// LogCaseCreated adds a log entry when a new case was created. Non-blocking
func LogCaseCreated(newCase models.Case, r *http.Request) {
	createLogEntry(categoryInfo, fmt.Sprintf("Case %s created, IP %s", newCase.CaseId, GetIpAddress(r)), false)
}

// LogStatusChange adds a log entry when the job status of a case changed. Non-blocking
func LogStatusChange(status models.JobStatus, r *http.Request) {
	createLogEntry(categoryStatus, fmt.Sprintf("Case %s changed to %s, IP %s", status.CaseId, status.Status, GetIpAddress(r)), false)
}

// LogInvalidApiKey adds a log entry when a request with an invalid API key was received. Non-blocking
func LogInvalidApiKey(r *http.Request) {
	createLogEntry(categoryAuth, fmt.Sprintf("Invalid API key used, IP %s, Useragent %s", GetIpAddress(r), r.UserAgent()), false)
}

// LogLogin adds a log entry when a user logged in. Non-blocking
func LogLogin(user models.UserInfo) {
	createLogEntry(categoryAuth, fmt.Sprintf("%s (%s) logged in", user.Username, user.Email), false)
}

// LogWarning adds a log entry with a warning. Non-blocking
func LogWarning(text string) {
	createLogEntry(categoryWarning, text, false)
}

type logEntry struct {
	Previous *logEntry
	Next     *logEntry
	Content  string
}

func reverseLogFile(input string) string {
	var reversedLogs strings.Builder
	current := &logEntry{}
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := scanner.Text()
		newEntry := logEntry{
			Content:  line,
			Previous: current,
		}
		current.Next = &newEntry
		current = &newEntry
	}
	for current.Previous != nil {
		reversedLogs.WriteString(current.Content + "\n")
		current = current.Previous
	}
	return reversedLogs.String()
}

func writeToFile(text string) {
	mutex.Lock()
	defer mutex.Unlock()
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	helper.Check(err)
	defer file.Close()
	_, err = file.WriteString(text + "\n")
	helper.Check(err)
}

func getDate() string {
	return time.Now().UTC().Format(time.RFC1123)
}

// GetIpAddress returns the IP address of the requester
func GetIpAddress(r *http.Request) string {
	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP := net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "Unknown IP"
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return "Unknown IP"
}
