package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"onehand.ai/internal/auditlog"
)

func main() {
	var (
		dir    = flag.String("dir", "", "audit dir containing audit-*.jsonl.zst")
		itemID = flag.String("item", "", "only print entries for this item id (optional)")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "missing -dir")
		os.Exit(2)
	}

	files, err := auditlog.ListFiles(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list audit files:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no audit files found in", *dir)
		os.Exit(1)
	}

	var n int
	for _, path := range files {
		err := auditlog.ReadFile(path, func(e auditlog.Entry) error {
			if *itemID != "" && e.Change.ItemID != *itemID {
				return nil
			}
			n++
			fmt.Println(formatEntry(e))
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("entries=%d files=%d\n", n, len(files))
}

func formatEntry(e auditlog.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Time, e.Change.ItemID)
	if e.Change.AnimationTo != "" {
		fmt.Fprintf(&b, " animation=%s->%s", e.Change.AnimationFrom, e.Change.AnimationTo)
	}
	for _, s := range e.Change.Interactions {
		fmt.Fprintf(&b, " %s=%s->%s", s.Slot, s.From, s.To)
	}
	return b.String()
}
