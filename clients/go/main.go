// Command line client for the newsroom realtime server.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/martinprlt/diario-gestion-archivos-sub000/clients/go/diario"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("DIARIO_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := diario.NewClient(baseURL)
	client.Token = os.Getenv("DIARIO_TOKEN")
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "login":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: diario login <username> <password>")
			os.Exit(1)
		}
		resp, err := client.Login(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Logged in as %s (%s)\n", resp.User.Name, resp.User.Role)
		fmt.Printf("export DIARIO_TOKEN=%s\n", resp.Token)

	case "heartbeat":
		resp, err := client.Heartbeat()
		exitOnError(err)
		fmt.Printf("%s, %d online\n", resp.Status, resp.OnlineCount)

	case "online":
		resp, err := client.Online()
		exitOnError(err)
		for _, u := range resp.OnlineUsers {
			fmt.Printf("  %-24s %-12s online %dm\n", u.Name, u.Role, u.OnlineFor)
		}
		fmt.Printf("Total: %d\n", resp.Total)

	case "logout":
		resp, err := client.Logout()
		exitOnError(err)
		fmt.Printf("Logged out, %d remain online\n", resp.Remaining)

	case "send":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: diario send <self_id> <recipient_id> <message>")
			os.Exit(1)
		}
		sock, err := client.Dial(os.Args[2])
		exitOnError(err)
		defer sock.Close()

		exitOnError(sock.SendMessage(os.Args[2], os.Args[3], os.Args[4]))
		ev, err := sock.ReadEvent()
		exitOnError(err)
		if ev.Event == "error" {
			fmt.Fprintf(os.Stderr, "Rejected: %s\n", string(ev.Data))
			os.Exit(1)
		}
		fmt.Println("Sent")

	case "history":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: diario history <self_id> <peer_id>")
			os.Exit(1)
		}
		sock, err := client.Dial(os.Args[2])
		exitOnError(err)
		defer sock.Close()

		exitOnError(sock.RequestHistory(os.Args[2], os.Args[3]))
		ev, err := sock.ReadEvent()
		exitOnError(err)
		msgs, err := ev.HistoryMessages()
		exitOnError(err)
		for _, m := range msgs {
			fmt.Printf("[%s] %s: %s\n", m.SentAt.Format("2006-01-02 15:04:05"), m.SenderID[:8], m.Content)
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`diario - newsroom realtime client

Usage: diario <command> [options]

Commands:
  login <user> <pass>             Authenticate and print a session token
  heartbeat                       Refresh presence for the current session
  online                          List online users (admin)
  logout                          Revoke the session
  send <self> <recipient> <msg>   Send a direct message
  history <self> <peer>           Print a conversation transcript
  health                          Check server health

Environment:
  DIARIO_URL     Server URL (default: http://localhost:8080)
  DIARIO_TOKEN   Session token from a previous login`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
