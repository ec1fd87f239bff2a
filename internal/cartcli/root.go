package cartcli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.session.UserID != "" {
		s = a.session.UserID
		if a.engine != nil && a.engine.HasConflicts() {
			s += " !conflicts"
		}
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	fmt.Println("Billboard cart CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("cart %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
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
				fmt.Println("Available commands: show, add, remove, dates, clear, checkout, proposal, photo, logout, exit")
			} else {
				fmt.Println("Available commands: show, login, exit")
			}

		case "login":
			a.login(ctx)
		case "logout":
			a.logout(ctx)
		case "show":
			a.show(ctx)
		case "add":
			a.add(ctx)
		case "remove":
			if len(args) == 0 {
				fmt.Println("Usage: remove <item-id>")
				continue
			}
			a.remove(ctx, args[0])
		case "dates":
			if len(args) != 2 {
				fmt.Println("Usage: dates <start> <end>   (ISO dates, e.g. 2025-04-01)")
				continue
			}
			a.dates(ctx, args[0], args[1])
		case "clear":
			a.clear(ctx)
		case "checkout":
			a.checkout(ctx)
		case "proposal":
			if len(args) == 0 {
				fmt.Println("Usage: proposal <file.json>")
				continue
			}
			a.proposal(ctx, args[0])
		case "photo":
			if len(args) == 0 {
				fmt.Println("Usage: photo <item-id>")
				continue
			}
			a.photo(ctx, args[0])
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
