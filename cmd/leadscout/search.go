package main

import (
	"encoding/json"
	"fmt"

	"github.com/mbialas/leadscout"
)

// Run executes the search command: one full pipeline run, result printed
// as indented JSON.
func (c *SearchCmd) Run(deps *Dependencies) error {
	logger := newLogger(deps.Stderr, c.Verbose)

	pipeline, closeAll, err := buildPipeline(c.PipelineFlags, logger)
	if err != nil {
		return err
	}
	defer closeAll()

	set, err := pipeline.Run(deps.Ctx, c.Term)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", leadscout.ErrorMessage(err))
		return err
	}

	out, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(out))
	return nil
}
