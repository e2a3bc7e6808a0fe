package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MiguelKingofcodes/project-ppdm/pkg/accountsdk"
)

type App struct {
	client   *accountsdk.Client
	reader   *bufio.Reader
	out      io.Writer
	password PasswordReader
	photoDir string
}

type Options struct {
	In  io.Reader
	Out io.Writer
	// Password overrides the terminal password reader.
	Password PasswordReader
	// PhotoDir is where profile photos are saved.
	PhotoDir string
}

func NewApp(client *accountsdk.Client, opts Options) *App {
	reader := bufio.NewReader(opts.In)
	password := opts.Password
	if password == nil {
		password = TerminalPassword(reader, opts.Out)
	}
	photoDir := opts.PhotoDir
	if photoDir == "" {
		photoDir = "."
	}
	return &App{client: client, reader: reader, out: opts.Out, password: password, photoDir: photoDir}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// report prints the server message for API errors and the raw error otherwise.
func (a *App) report(err error) {
	var apiErr *accountsdk.APIError
	if errors.As(err, &apiErr) {
		a.printf("error: %s", apiErr.Message)
		for _, d := range apiErr.Details {
			a.printf("  %s: %s", d.Field, d.Message)
		}
		return
	}
	a.printf("error: %v", err)
}

func (a *App) ask(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) askPassword(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt+": ")
	pw, err := a.password()
	if err != nil {
		return "", err
	}
	defer wipe(pw)
	return string(pw), nil
}

func (a *App) Register(ctx context.Context) error {
	var req accountsdk.RegisterRequest
	var err error
	if req.Name, err = a.ask("Name"); err != nil {
		return err
	}
	if req.Email, err = a.ask("Email"); err != nil {
		return err
	}
	if req.Password, err = a.askPassword("Password"); err != nil {
		return err
	}
	if req.SecurityQuestion, err = a.ask("Security question"); err != nil {
		return err
	}
	if req.SecurityAnswer, err = a.ask("Security answer"); err != nil {
		return err
	}

	id, err := a.client.Register(ctx, req)
	if err != nil {
		a.report(err)
		return err
	}
	a.printf("Registered user %d. You can log in now.", id)
	return nil
}

func (a *App) Login(ctx context.Context) (*accountsdk.Session, error) {
	email, err := a.ask("Email")
	if err != nil {
		return nil, err
	}
	password, err := a.askPassword("Password")
	if err != nil {
		return nil, err
	}

	session, err := a.client.Login(ctx, email, password)
	if err != nil {
		a.report(err)
		return nil, err
	}
	a.printf("Welcome, %s!", session.User().Name)
	return session, nil
}

// Forgot walks the recovery flow, retrying a step until it succeeds or input
// runs out.
func (a *App) Forgot(ctx context.Context) error {
	flow := accountsdk.NewRecoveryFlow(a.client)

	for flow.Step() != accountsdk.StepDone {
		var err error
		switch flow.Step() {
		case accountsdk.StepStart:
			var email string
			if email, err = a.ask("Email"); err != nil {
				return err
			}
			err = flow.SubmitEmail(ctx, email)
		case accountsdk.StepAwaitingSecurityAnswer:
			var question, answer string
			if question, err = a.ask("Security question"); err != nil {
				return err
			}
			if answer, err = a.ask("Security answer"); err != nil {
				return err
			}
			err = flow.SubmitAnswer(ctx, question, answer)
		case accountsdk.StepAwaitingNewPassword:
			var pw string
			if pw, err = a.askPassword("New password"); err != nil {
				return err
			}
			err = flow.SubmitNewPassword(ctx, pw)
		}
		if err != nil {
			a.report(err)
			if line, rerr := a.ask("Try again? (y/n)"); rerr != nil || !strings.EqualFold(line, "y") {
				return err
			}
		}
	}

	a.printf("Password changed. You can log in now.")
	return nil
}

// Profile prints the signed-in user's profile and saves the photo when one
// is stored.
func (a *App) Profile(ctx context.Context, session *accountsdk.Session) error {
	profile, err := session.GetProfile(ctx)
	if err != nil {
		a.report(err)
		return err
	}
	a.printf("Id:    %d", profile.UserID)
	a.printf("Name:  %s", profile.Name)
	a.printf("Email: %s", profile.Email)

	if !profile.HasPhoto {
		a.printf("Photo: none")
		return nil
	}
	photo, err := session.FetchPhoto(ctx)
	if err != nil {
		a.report(err)
		return err
	}
	path := filepath.Join(a.photoDir, "profile_"+strconv.FormatInt(profile.UserID, 10)+".jpg")
	if err := os.WriteFile(path, photo, 0o600); err != nil {
		a.report(err)
		return err
	}
	a.printf("Photo: saved to %s", path)
	return nil
}

func (a *App) Photo(ctx context.Context, session *accountsdk.Session, path string) error {
	if path == "" {
		a.printf("usage: photo <path>")
		return nil
	}
	image, err := os.ReadFile(path)
	if err != nil {
		a.report(err)
		return err
	}
	if err := session.UploadPhoto(ctx, path, image); err != nil {
		a.report(err)
		return err
	}
	a.printf("Profile photo updated.")
	return nil
}

func (a *App) Products(ctx context.Context) error {
	products, err := a.client.ListProducts(ctx)
	if err != nil {
		a.report(err)
		return err
	}
	if len(products) == 0 {
		a.printf("No products.")
		return nil
	}
	for _, p := range products {
		a.printf("%4d  %-30s %10.2f", p.ID, p.Name, p.Price)
	}
	return nil
}

func (a *App) AddProduct(ctx context.Context) error {
	name, err := a.ask("Name")
	if err != nil {
		return err
	}
	raw, err := a.ask("Price")
	if err != nil {
		return err
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		a.printf("error: price must be a number")
		return err
	}

	id, err := a.client.CreateProduct(ctx, name, price)
	if err != nil {
		a.report(err)
		return err
	}
	a.printf("Product %d created.", id)
	return nil
}
