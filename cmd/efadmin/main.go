// Command efadmin is a terminal client for the GreenLedger emission-factor
// admin backend. It signs in, keeps the session alive across invocations
// through a snapshot file, and drives the invite and account operations.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	authkit "github.com/greenledger/authkit"
	"github.com/greenledger/authkit/store"
	"github.com/greenledger/authkit/transport"
)

func stateDir() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, "efadmin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "efadmin")
}

func usage() {
	fmt.Fprintf(os.Stderr, `efadmin
Usage:
  efadmin -api URL [-v] <cmd> [args]

Commands:
  login    -email <email> [-password <password>]   (prompts for 2FA code if required)
  whoami                                           (prints the current profile)
  refresh                                          (revalidates the session)
  logout
  invite   -email <email>
  register -invite <token> -email <email> -u <username> [-password <password>]
  passwd                                           (prompts for current and new password)
`)
	os.Exit(2)
}

func main() {
	api := flag.String("api", os.Getenv("EFADMIN_API"), "backend API base URL")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	if *api == "" {
		fail(errors.New("need -api or EFADMIN_API"))
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fail(err)
		}
		defer logger.Sync() //nolint:errcheck
	}

	if err := os.MkdirAll(stateDir(), 0o700); err != nil {
		fail(err)
	}

	controller, err := authkit.New().
		WithBaseURL(*api).
		WithLogger(logger).
		WithStore(store.NewFile(filepath.Join(stateDir(), "session.json"))).
		WithAuditSink(authkit.NewZapSink(logger)).
		Build()
	if err != nil {
		fail(err)
	}
	defer controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch flag.Arg(0) {

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "password (prompted when empty)")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" {
			fail(errors.New("need -email"))
		}
		pw := *password
		if pw == "" {
			pw = prompt("password: ")
		}

		sess, err := controller.SubmitLogin(ctx, *email, pw)
		if err != nil {
			fail(err)
		}
		if sess.Phase == authkit.PhaseAwaitingSecondFactor {
			code := prompt("2FA code: ")
			sess, err = controller.SubmitSecondFactor(ctx, code)
			if err != nil {
				fail(err)
			}
		}
		fmt.Printf("signed in as %s (%s)\n", sess.UserID, sess.Role)

	case "whoami":
		resume(ctx, controller)
		profile, err := controller.Profile(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Printf("id=%s email=%s username=%s role=%s\n",
			profile.UserID, profile.Email, profile.Username, profile.Role)

	case "refresh":
		resume(ctx, controller)
		sess, err := controller.Refresh(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Printf("session ok (%s)\n", sess.Role)

	case "logout":
		resume(ctx, controller)
		if err := controller.Logout(ctx); err != nil {
			// Local state is anonymous either way; report and exit clean.
			fmt.Fprintln(os.Stderr, "server logout failed:", err)
		}
		fmt.Println("signed out")

	case "invite":
		fs := flag.NewFlagSet("invite", flag.ExitOnError)
		email := fs.String("email", "", "invitee email")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" {
			fail(errors.New("need -email"))
		}
		resume(ctx, controller)
		if err := controller.SendInvite(ctx, *email); err != nil {
			fail(err)
		}
		fmt.Println("invite sent to", *email)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		invite := fs.String("invite", "", "invite token")
		email := fs.String("email", "", "account email")
		username := fs.String("u", "", "username")
		password := fs.String("password", "", "password (prompted when empty)")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" || *username == "" {
			fail(errors.New("need -email and -u"))
		}
		pw := *password
		if pw == "" {
			pw = prompt("password: ")
		}

		err := controller.Register(ctx, *invite, authkit.RegistrationInput{
			Email:    *email,
			Username: *username,
			Password: pw,
		})
		if err != nil {
			fail(err)
		}
		fmt.Println("registered", *email)

	case "passwd":
		resume(ctx, controller)
		current := prompt("current password: ")
		next := prompt("new password: ")
		if err := controller.ChangePassword(ctx, current, next); err != nil {
			fail(err)
		}
		fmt.Println("password changed")

	default:
		usage()
	}
}

// resume revalidates the persisted session and exits when none survives.
func resume(ctx context.Context, controller *authkit.Controller) {
	if _, err := controller.Resume(ctx); err != nil {
		if errors.Is(err, authkit.ErrUnauthorized) || errors.Is(err, store.ErrSnapshotNotFound) {
			fail(errors.New("not signed in (run: efadmin login)"))
		}
		fail(err)
	}
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		fail(err)
	}
	return strings.TrimSpace(line)
}

func fail(err error) {
	var validationErr *transport.ValidationError
	if errors.As(err, &validationErr) {
		fmt.Fprintln(os.Stderr, "rejected:", validationErr.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
