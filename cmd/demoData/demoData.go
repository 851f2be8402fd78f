package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/casedrop/casedrop/internal/configuration/database"
	"github.com/casedrop/casedrop/internal/environment"
	"github.com/casedrop/casedrop/internal/models"
	"github.com/google/uuid"
)

var osExit = os.Exit

func main() {
	fmt.Println("WARNING: This will delete all cases in the database!")
	fmt.Println("Press enter to continue...")
	_, _ = fmt.Scanln()
	env := environment.New()
	config, err := database.ParseUrl(env.DatabaseUrl)
	if err != nil {
		fmt.Println(err)
		osExit(1)
		return
	}
	database.Connect(config)
	defer database.Close()

	deleteAllCases()
	addCases(time.Now())
	fmt.Printf("Added %d cases\n", len(caseTitles))
}

func deleteAllCases() {
	for _, existingCase := range database.GetAllCases() {
		database.DeleteCase(existingCase.CaseId)
	}
}

func addCases(now time.Time) {
	statuses := []string{models.JobPending, models.JobRunning, models.JobSucceeded, models.JobFailed, models.JobTimedOut, models.JobAborted}
	for i, title := range caseTitles {
		created := now.Add(time.Duration(-rand.Intn(24*6000)) * time.Minute).UTC()
		updated := created.Add(time.Duration(rand.Intn(600)) * time.Minute)
		database.SaveCase(models.Case{
			CaseId:      uuid.NewString(),
			Title:       title,
			Description: "Demo case " + fmt.Sprint(i+1),
			Metadata: map[string]string{
				"source":     "demoData",
				"department": departments[rand.Intn(len(departments))],
			},
			CreatedAt:       created.Format("2006-01-02T15:04:05.000Z07:00"),
			UpdatedAt:       updated.Format("2006-01-02T15:04:05.000Z07:00"),
			Status:          statuses[rand.Intn(len(statuses))],
			StatusTimestamp: updated.UnixMilli(),
		})
	}
}

var departments = []string{"Legal", "Finance", "Human Resources", "Compliance", "Engineering"}

var caseTitles = []string{
	"Quarterly Audit Documents",
	"Contract Review 2024",
	"Insurance Claim Photos",
	"Onboarding Paperwork",
	"Supplier Invoices",
	"Incident Report Attachments",
	"Tax Filing Records",
	"Patent Application Drafts",
	"Site Inspection Images",
	"Board Meeting Minutes",
}
