package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gallery-player/internal/session"
)

// Default data directory path
const defaultDataDir = "/data"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	storePath := filepath.Join(dataDir, "sessions.db")

	store, err := session.Open(storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open session store: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATA_DIR is set correctly (current: %s)\n", dataDir)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close session store: %v\n", err)
		}
	}()

	switch command {
	case "list":
		if !listSessions(store) {
			os.Exit(1)
		}
	case "clear":
		if !clearSessions(store) {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display, replacing anything outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Gallery Player Session Management")
	fmt.Println("")
	fmt.Println("Usage: sessions <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list    - Show persisted sessions")
	fmt.Println("  clear   - Remove all persisted sessions")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATA_DIR - Path to data directory (default: %s)\n", defaultDataDir)
}

func listSessions(store *session.Store) bool {
	records, err := store.All()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read sessions: %v\n", err)
		return false
	}

	if len(records) == 0 {
		fmt.Println("No persisted sessions.")
		return true
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("%d persisted session(s):\n\n", len(records))
	for _, k := range keys {
		rec := records[k]
		fmt.Printf("  key:       %s\n", k)
		fmt.Printf("  signature: %s\n", rec.Signature)
		fmt.Printf("  items:     %d\n", len(rec.Playlist))
		fmt.Printf("  index:     %d\n", rec.CurrentIndex)
		fmt.Printf("  saved:     %s\n", rec.SavedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Println("")
	}
	return true
}

func clearSessions(store *session.Store) bool {
	records, err := store.All()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read sessions: %v\n", err)
		return false
	}

	if err := store.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to clear sessions: %v\n", err)
		return false
	}

	fmt.Printf("Removed %d session(s).\n", len(records))
	return true
}
