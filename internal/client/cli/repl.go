package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/cinemaclub/internal/client/session"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Update(ctx context.Context) error
	Status(ctx context.Context) error
	Media(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Popular(ctx context.Context) error
	New(ctx context.Context) error
	Soon(ctx context.Context) error
	Clubs(ctx context.Context, args []string) error
}

const (
	helpAnonymous     = "Available commands: register, login, status, exit"
	helpAuthenticated = "Available commands: whoami, update, logout, media [movie|tv_series|animation], show <id>, popular, new, soon, clubs [type|sections|<id>], status, exit"
)

// runREPL reads commands from reader until EOF, "exit"/"quit" or ctx
// cancellation. Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}

		fmt.Fprintf(w, "cinemaclub %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpAuthenticated)
			} else {
				fmt.Fprintln(w, helpAnonymous)
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.Whoami(ctx)
		case "update":
			cmdErr = a.Update(ctx)
		case "status":
			cmdErr = a.Status(ctx)
		case "media", "l", "list":
			cmdErr = a.Media(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "popular":
			cmdErr = a.Popular(ctx)
		case "new":
			cmdErr = a.New(ctx)
		case "soon":
			cmdErr = a.Soon(ctx)
		case "clubs":
			cmdErr = a.Clubs(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", userMessage(cmdErr))
		}
	}
}

// userMessage prefers the session layer's translated message.
func userMessage(err error) string {
	var se *session.Error
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
