package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/mangashelf/internal/auth"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
	"github.com/mrlokans/mangashelf/internal/scheduler"
)

const envPassword = "MANGA_PASSWORD"

// LoginCommand signs in, or with Register creates the account first.
type LoginCommand struct {
	cfg      *config.Config
	register bool

	Email    string
	Password string
	Verbose  bool
}

func NewLoginCommand(cfg *config.Config) *LoginCommand {
	return &LoginCommand{cfg: cfg}
}

func NewRegisterCommand(cfg *config.Config) *LoginCommand {
	return &LoginCommand{cfg: cfg, register: true}
}

func (cmd *LoginCommand) name() string {
	if cmd.register {
		return "register"
	}
	return "login"
}

func (cmd *LoginCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet(cmd.name(), flag.ExitOnError)

	fs.StringVar(&cmd.Email, "email", "", "Account email (prompted when omitted)")
	fs.StringVar(&cmd.Password, "password", os.Getenv(envPassword), "Account password (or set "+envPassword+"; prompted when omitted)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [options]\n\n", os.Args[0], cmd.name())
		if cmd.register {
			fmt.Fprintf(os.Stderr, "Create an account and sign in with it. Passwords need at least %d characters.\n\n", auth.MinPasswordLength)
		} else {
			fmt.Fprintf(os.Stderr, "Sign in. The session token is stored encrypted on this machine.\n\n")
		}
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *LoginCommand) Run() error {
	var err error
	if cmd.Email == "" {
		if cmd.Email, err = prompt("Email: "); err != nil {
			return err
		}
	}
	if cmd.Password == "" {
		if cmd.Password, err = prompt("Password: "); err != nil {
			return err
		}
	}

	a, err := openApp(cmd.cfg, cmd.Verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if cmd.register {
		err = a.Session.Register(ctx, cmd.Email, cmd.Password)
	} else {
		err = a.Session.Login(ctx, cmd.Email, cmd.Password)
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return fmt.Errorf("enter a valid email and a password of at least %d characters", auth.MinPasswordLength)
	}
	if err != nil {
		return err
	}

	if profile := a.Session.Profile(); profile != nil {
		fmt.Printf("✅ Signed in as %s\n", profile.Email)
	} else {
		fmt.Println("✅ Signed in")
	}

	fmt.Println("Pulling your cloud collection...")
	report, err := scheduler.RunCollectionSync(ctx, a.Engine, a.SyncRuns, a.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Sync skipped: %v\n", err)
		return nil
	}
	fmt.Printf("Sync: %s\n", report)
	return nil
}

// LogoutCommand forgets the stored session.
type LogoutCommand struct {
	cfg *config.Config
}

func NewLogoutCommand(cfg *config.Config) *LogoutCommand {
	return &LogoutCommand{cfg: cfg}
}

func (cmd *LogoutCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s logout\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Sign out. The local collection is kept.\n")
	}
	return fs.Parse(args)
}

func (cmd *LogoutCommand) Run() error {
	a, err := openApp(cmd.cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Session.Logout()
	fmt.Println("Signed out")
	return nil
}

// WhoamiCommand prints the signed-in profile.
type WhoamiCommand struct {
	cfg *config.Config

	Verbose bool
}

func NewWhoamiCommand(cfg *config.Config) *WhoamiCommand {
	return &WhoamiCommand{cfg: cfg}
}

func (cmd *WhoamiCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	return fs.Parse(args)
}

func (cmd *WhoamiCommand) Run() error {
	a, err := openApp(cmd.cfg, cmd.Verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := restoreSession(context.Background(), a); err != nil {
		return err
	}
	printProfile(a.Session.Profile())
	return nil
}

func printProfile(p *mangaapi.Profile) {
	if p == nil {
		fmt.Println("Signed in (profile unavailable)")
		return
	}
	fmt.Printf("Email:  %s\n", p.Email)
	fmt.Printf("Role:   %s\n", p.Role)
	fmt.Printf("Active: %t\n", p.IsActive)
}

// RefreshCommand exchanges the stored token for a fresh one.
type RefreshCommand struct {
	cfg *config.Config

	Verbose bool
}

func NewRefreshCommand(cfg *config.Config) *RefreshCommand {
	return &RefreshCommand{cfg: cfg}
}

func (cmd *RefreshCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	return fs.Parse(args)
}

func (cmd *RefreshCommand) Run() error {
	a, err := openApp(cmd.cfg, cmd.Verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if err := restoreSession(ctx, a); err != nil {
		return err
	}
	if err := a.Session.RefreshToken(ctx); err != nil {
		return fmt.Errorf("%w; sign in again", err)
	}
	fmt.Println("✅ Session token refreshed")
	return nil
}
