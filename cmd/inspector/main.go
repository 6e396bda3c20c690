package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"member-hub/internal"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

// Read-only dump of the messaging store, one table row per document. Opens
// with BypassLockGuard so it works while the server holds the lock. With
// -serve it exposes the same view as a browsable HTML page instead.
func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := flag.String("prefix", "conv:", "Prefix to scan (conv:, msg:, notif:, profile:, idx:)")
	servePort := flag.Int("serve", 0, "Serve the HTML inspector on this port instead of dumping")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *servePort > 0 {
		serve(db, *servePort)
		return
	}
	dump(db, *dbPath, *prefix)
}

func serve(db *badger.DB, port int) {
	stats := func() map[string]any {
		return map[string]any{
			"Mode": "Inspector (Read-Only)",
			"Time": time.Now().Format(time.RFC822),
		}
	}
	fmt.Printf("Inspector started at http://localhost:%d/inspect\n", port)
	internal.StartDebugServer(db, port, "/inspect", describe, stats)
	select {}
}

func dump(db *badger.DB, dbPath, prefix string) {
	color.Cyan.Printf("Scanning %s with prefix %q\n\n", dbPath, prefix)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Timestamp", "Detail", "Size"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				row := describe(string(item.Key()), v)
				table.Append([]string{row.Key, row.Kind, row.Timestamp, row.Detail, row.Size})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Println()
	color.Green.Printf("%d documents\n", rows)
}

// describe builds one display row from a raw key/value pair. Malformed
// documents still render, with the decode error as detail.
func describe(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	parts := strings.Split(key, ":")
	switch parts[0] {
	case "conv":
		row.Kind = "CONVERSATION"
		row.Detail = field(val, "participants")
	case "msg":
		row.Kind = "MESSAGE"
		row.Detail = truncate(field(val, "content"), 60)
	case "notif":
		row.Kind = "NOTIFICATION"
		row.Detail = field(val, "title")
	case "profile":
		row.Kind = "PROFILE"
		row.Detail = field(val, "display_name")
	case "idx":
		row.Kind = "INDEX"
	}
	return row
}

func field(val []byte, name string) string {
	var doc map[string]any
	if err := json.Unmarshal(val, &doc); err != nil {
		return "decode error: " + err.Error()
	}
	return fmt.Sprintf("%v", doc[name])
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
