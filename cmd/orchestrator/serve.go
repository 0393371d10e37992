package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/dispatch"
	"github.com/jpicklyk/task-orchestrator/internal/repository/sqlite"
)

// toolCall is one line of the stdio transport: a tool name plus its raw
// JSON parameters.
type toolCall struct {
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestrator, dispatching one newline-delimited JSON tool call per line of stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.Open(globalConfig.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		logger := log.New(os.Stderr, "orchestrator: ", log.LstdFlags)
		loader := config.NewLoader(logger)
		d := dispatch.New(store, loader, logger)

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		enc := json.NewEncoder(os.Stdout)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var call toolCall
			if err := json.Unmarshal(line, &call); err != nil {
				_ = enc.Encode(dispatch.Envelope{
					Success: false,
					Message: "could not parse request",
					Error:   &dispatch.ErrorPayload{Code: dispatch.CodeValidation, Details: err.Error()},
				})
				continue
			}
			env := d.Call(call.Tool, call.Params)
			if err := enc.Encode(env); err != nil {
				logger.Printf("writing response: %v", err)
			}
		}
		return scanner.Err()
	},
}
