package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportResults appends a finished game's final leaderboard to a text
// file. Best-effort bookkeeping for recurring quiz nights; a failure
// never affects the game itself.
func ExportResults(roomID string, players []Player, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Room %s - finished %s\n", roomID, time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	for rank, p := range players {
		sb.WriteString(fmt.Sprintf("%d. %s: %d points\n", rank+1, p.Name, p.Score))
	}
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}
