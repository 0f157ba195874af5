package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Refresh(ctx context.Context) error
	Find(ctx context.Context, peerID string) error
	Users(ctx context.Context) error
	Online(ctx context.Context) error
	Connect(ctx context.Context, peerID string) error
	Send(ctx context.Context, peerID, text string) error
	History(ctx context.Context) error
}

// runREPL reads a line, parses the first token as the command and dispatches
// to methods on 'a'. Unknown commands are reported back. The loop exits on
// scanner EOF or when the user types "exit" or "quit".
//
// Command errors are ignored here; handlers print their own errors. This
// keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pl %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: find <id>, users, online, connect <id>, send <id> <text>, refresh, history, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "find":
			peer := ""
			if len(args) > 0 {
				peer = args[0]
			}
			_ = a.Find(ctx, peer)

		case "users":
			_ = a.Users(ctx)

		case "online":
			_ = a.Online(ctx)

		case "connect":
			peer := ""
			if len(args) > 0 {
				peer = args[0]
			}
			_ = a.Connect(ctx, peer)

		case "send":
			peer, text := "", ""
			if len(args) > 0 {
				peer = args[0]
			}
			if len(args) > 1 {
				text = strings.Join(args[1:], " ")
			}
			_ = a.Send(ctx, peer, text)

		case "history":
			_ = a.History(ctx)

		case "exit", "quit":
			return

		default:
			printlnFn("Unknown command: " + cmd)
		}
	}
}
