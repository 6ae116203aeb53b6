package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ayusman/natya/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import reference frames for a choreography",
	Long: `Import reads a JSON file mapping frame indices to joint positions,
{"0": {"left_shoulder": {"x": 0.4, "y": 0.3, "z": 0}, ...}, "1": ...},
and stores it as the reference of the choreography with the given title.
An existing choreography keeps its ID and has the listed frames replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		interval, _ := cmd.Flags().GetInt("interval-ms")
		file, _ := cmd.Flags().GetString("file")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return err
		}
		st, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		c, err := importFile(st, title, interval, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s): %d frames every %dms\n", c.Title, c.ID, c.Frames, c.IntervalMS)
		return nil
	},
}

func init() {
	importCmd.Flags().String("title", "", "Choreography title")
	importCmd.Flags().Int("interval-ms", store.DefaultIntervalMS, "Milliseconds between reference frames")
	importCmd.Flags().String("file", "", "Reference frames JSON file")
	importCmd.MarkFlagRequired("title")
	importCmd.MarkFlagRequired("file")
}

// importFile stores the frames in path under the choreography titled title,
// creating it if needed.
func importFile(st *store.Store, title string, intervalMS int, path string) (*store.Choreography, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}
	if intervalMS <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", intervalMS)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	frames, err := store.ParseFrames(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	c, err := st.Choreographies().GetByTitle(title)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c = &store.Choreography{ID: uuid.New().String(), Title: title, IntervalMS: intervalMS}
		if err := st.Choreographies().Create(c); err != nil {
			return nil, fmt.Errorf("create choreography: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("get choreography: %w", err)
	case c.IntervalMS != intervalMS:
		c.IntervalMS = intervalMS
		if err := st.Choreographies().Update(c); err != nil {
			return nil, fmt.Errorf("update choreography: %w", err)
		}
	}

	if err := st.References().PutFrames(c.ID, frames); err != nil {
		return nil, fmt.Errorf("store frames: %w", err)
	}
	return st.Choreographies().GetByID(c.ID)
}
