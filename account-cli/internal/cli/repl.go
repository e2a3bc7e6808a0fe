package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/MiguelKingofcodes/project-ppdm/pkg/accountsdk"
)

// Run reads commands until exit or end of input. session is nil while signed
// out; it is the only navigation state.
func (a *App) Run(ctx context.Context) {
	var session *accountsdk.Session

	a.printf("Type help for the list of commands.")
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := a.ask(prompt(session))
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.printf("")
			}
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if session != nil {
				a.printf("Commands: profile, photo <path>, products, addproduct, logout, exit")
			} else {
				a.printf("Commands: register, login, forgot, products, addproduct, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			if session != nil {
				a.printf("Already logged in as %s.", session.User().Email)
				continue
			}
			if s, err := a.Login(ctx); err == nil {
				session = s
			}

		case "forgot":
			_ = a.Forgot(ctx)

		case "profile", "photo", "logout":
			if session == nil {
				a.printf("Please log in first.")
				continue
			}
			switch cmd {
			case "profile":
				_ = a.Profile(ctx, session)
			case "photo":
				_ = a.Photo(ctx, session, strings.Join(args, " "))
			case "logout":
				session.Logout()
				session = nil
				a.printf("Logged out.")
			}

		case "products":
			_ = a.Products(ctx)

		case "addproduct":
			_ = a.AddProduct(ctx)

		case "exit", "quit":
			a.printf("Bye!")
			return

		default:
			a.printf("Unknown command: %s", cmd)
		}
	}
}

func prompt(session *accountsdk.Session) string {
	if session == nil {
		return "ppdm"
	}
	return "ppdm (" + session.User().Email + ")"
}
