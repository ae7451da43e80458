package main

import (
	"fmt"

	"github.com/learntocloud/ltc-backend/core/curriculum"
)

// checkContent reloads and validates the embedded curriculum files,
// then prints a per-phase summary.
func (cli *commandLine) checkContent() error {
	catalog, err := curriculum.Load()
	if err != nil {
		return err
	}

	for _, ph := range catalog.Phases() {
		fmt.Printf("phase %d (%s): %d topics, %d steps, %d questions, %d checklist items",
			ph.Number, ph.Slug, len(ph.Topics), ph.StepCount(), ph.QuestionCount(), ph.ChecklistCount())
		if ph.RequiresHandsOn() {
			fmt.Print(", hands-on required")
		}
		fmt.Println()
	}
	fmt.Printf("OK: %d phases\n", len(catalog.Phases()))
	return nil
}
