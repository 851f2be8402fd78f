package main

import (
	"os"
	"slices"
	"sync"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// progressDisplay shows the combined progress of all files of an upload in a single bar
type progressDisplay struct {
	mutex       sync.Mutex
	bar         *progressbar.ProgressBar
	percentages map[int64]int
}

func newProgressDisplay(fileCount int) *progressDisplay {
	return &progressDisplay{
		bar: progressbar.NewOptions(fileCount*100,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Uploading..."),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		),
		percentages: make(map[int64]int),
	}
}

func (p *progressDisplay) update(record models.ProgressRecord) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.percentages[record.Id] = record.Percentage
	total := 0
	for _, percentage := range p.percentages {
		total += percentage
	}
	p.bar.Describe("Uploading: " + record.Filename)
	_ = p.bar.Set(total)
}

func (p *progressDisplay) finish() {
	if p == nil {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	_ = p.bar.Finish()
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// sortedDescending returns the positions from highest to lowest without duplicates
func sortedDescending(input []int) []int {
	result := slices.Clone(input)
	slices.Sort(result)
	result = slices.Compact(result)
	slices.Reverse(result)
	return result
}
