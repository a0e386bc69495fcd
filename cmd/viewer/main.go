package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"room-relay/observability"
)

// Read-only console view of a running gateway, built from its /stats endpoint.
func main() {
	_ = godotenv.Load()

	defaultAddr := os.Getenv("GATEWAY_HTTP_ADDR")
	if defaultAddr == "" {
		defaultAddr = "http://localhost:8080"
	}
	addr := flag.String("addr", defaultAddr, "Gateway base address")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/stats")
	if err != nil {
		log.Fatal("Error while fetching stats: ", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Gateway returned %s", resp.Status)
	}

	var snapshot observability.StatsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		log.Fatal("Error while decoding stats: ", err)
	}

	fmt.Printf("Gateway %s at %s\n\n", *addr, time.Now().Format(time.RFC822))

	counters := newTable([]string{"Connections", "Total", "Frames In", "Rejected", "Messages", "Delivered", "Relayed Out", "Relayed In", "Relay State"})
	counters.Append([]string{
		fmt.Sprint(snapshot.ActiveConnections),
		fmt.Sprint(snapshot.TotalConnections),
		fmt.Sprint(snapshot.FramesIn),
		fmt.Sprint(snapshot.FramesRejected),
		fmt.Sprint(snapshot.MessagesIn),
		fmt.Sprint(snapshot.Delivered),
		fmt.Sprint(snapshot.RelayedOut),
		fmt.Sprint(snapshot.RelayedIn),
		snapshot.RelayState,
	})
	counters.Render()

	fmt.Println()

	rooms := newTable([]string{"Room", "Members", "Participants"})
	for _, room := range snapshot.Rooms {
		rooms.Append([]string{
			room.ID,
			fmt.Sprint(len(room.Participants)),
			strings.Join(room.Participants, ", "),
		})
	}
	rooms.Render()

	if len(snapshot.Languages) > 0 {
		fmt.Println()
		langs := make([]string, 0, len(snapshot.Languages))
		for lang := range snapshot.Languages {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			fmt.Printf("  %s: %d\n", lang, snapshot.Languages[lang])
		}
	}
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
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
	return table
}
