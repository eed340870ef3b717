package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Astemirdum/library-client/internal/controller"
	"github.com/Astemirdum/library-client/internal/errs"
	"github.com/Astemirdum/library-client/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type Controller interface {
	Snapshot() controller.State
	Authenticate(ctx context.Context, username, password string) error
	Register(ctx context.Context, req model.RegisterRequest) error
	EnterAsGuest(ctx context.Context) error
	ToggleAuthMode()
	Search(ctx context.Context, query string) error
	NextPage(ctx context.Context) error
	PreviousPage(ctx context.Context) error
	HistoryPage(ctx context.Context, forward bool) error
	OpenProfile(ctx context.Context) error
	SelectBook(id int) error
	Back()
	DismissNotice()
	Borrow(ctx context.Context, bookID int) error
	Return(ctx context.Context, bookID int) error
	DeleteBook(ctx context.Context, bookID int, confirm controller.Confirm) error
	UpdateProfile(ctx context.Context, upd model.ProfileUpdate) error
	Logout(ctx context.Context) error
}

var _ Controller = (*controller.Controller)(nil)

// PasswordReader reads a secret after printing prompt.
type PasswordReader func(prompt string) (string, error)

type Shell struct {
	ctrl         Controller
	sc           *bufio.Scanner
	out          io.Writer
	readPassword PasswordReader
	log          *zap.Logger
}

type Option func(s *Shell)

func WithPasswordReader(r PasswordReader) Option {
	return func(s *Shell) {
		s.readPassword = r
	}
}

func New(ctrl Controller, in io.Reader, out io.Writer, log *zap.Logger, opts ...Option) *Shell {
	s := &Shell{
		ctrl: ctrl,
		sc:   bufio.NewScanner(in),
		out:  out,
		log:  log.Named("shell"),
	}
	s.readPassword = s.linePassword
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.readPassword = func(prompt string) (string, error) {
			s.printf("%s", prompt)
			b, err := term.ReadPassword(int(f.Fd()))
			s.printf("\n")
			if err != nil {
				return "", errors.Wrap(err, "read password")
			}
			return strings.TrimSpace(string(b)), nil
		}
	}
	for _, op := range opts {
		op(s)
	}
	return s
}

// Run reads commands until exit, end of input or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("Library client. Type 'help' for the list of commands.\n")
	s.render()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.printf("\n%s> ", s.ctrl.Snapshot().View)
		if !s.sc.Scan() {
			return s.sc.Err()
		}
		line := strings.TrimSpace(s.sc.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printf("Goodbye!\n")
			return nil
		}
		if err := s.dispatch(ctx, line); err != nil {
			s.log.Debug("command", zap.String("line", line), zap.Error(err))
			s.reportError(err)
		}
		s.render()
	}
}

func (s *Shell) dispatch(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		s.help()
		return nil
	case "login":
		return s.login(ctx, arg)
	case "register":
		return s.register(ctx)
	case "guest":
		return s.ctrl.EnterAsGuest(ctx)
	case "mode":
		s.ctrl.ToggleAuthMode()
		return nil
	case "books", "search":
		return s.ctrl.Search(ctx, arg)
	case "next":
		return s.ctrl.NextPage(ctx)
	case "prev":
		return s.ctrl.PreviousPage(ctx)
	case "show":
		id, err := bookID(arg)
		if err != nil {
			return err
		}
		return s.ctrl.SelectBook(id)
	case "back":
		s.ctrl.Back()
		return nil
	case "borrow":
		id, err := bookID(arg)
		if err != nil {
			return err
		}
		return s.ctrl.Borrow(ctx, id)
	case "return":
		id, err := bookID(arg)
		if err != nil {
			return err
		}
		return s.ctrl.Return(ctx, id)
	case "delete":
		id, err := bookID(arg)
		if err != nil {
			return err
		}
		return s.ctrl.DeleteBook(ctx, id, s.confirm)
	case "profile":
		return s.ctrl.OpenProfile(ctx)
	case "history":
		switch arg {
		case "next":
			return s.ctrl.HistoryPage(ctx, true)
		case "prev":
			return s.ctrl.HistoryPage(ctx, false)
		default:
			return s.ctrl.OpenProfile(ctx)
		}
	case "email":
		return s.ctrl.UpdateProfile(ctx, model.ProfileUpdate{Email: &arg})
	case "phone":
		return s.ctrl.UpdateProfile(ctx, model.ProfileUpdate{PhoneNumber: &arg})
	case "logout":
		return s.ctrl.Logout(ctx)
	default:
		s.printf("Unknown command %q. Type 'help' for the list of commands.\n", cmd)
		return nil
	}
}

func (s *Shell) login(ctx context.Context, username string) error {
	if username == "" {
		var ok bool
		if username, ok = s.ask("Username: "); !ok {
			return io.EOF
		}
	}
	password, err := s.readPassword("Password: ")
	if err != nil {
		return err
	}
	return s.ctrl.Authenticate(ctx, username, password)
}

func (s *Shell) register(ctx context.Context) error {
	var req model.RegisterRequest
	var ok bool
	if req.Username, ok = s.ask("Username: "); !ok {
		return io.EOF
	}
	password, err := s.readPassword("Password: ")
	if err != nil {
		return err
	}
	req.Password = password
	if req.Email, ok = s.ask("Email (optional): "); !ok {
		return io.EOF
	}
	if req.PhoneNumber, ok = s.ask("Phone (optional): "); !ok {
		return io.EOF
	}
	return s.ctrl.Register(ctx, req)
}

func (s *Shell) confirm(_ context.Context, prompt string) bool {
	answer, ok := s.ask(prompt + " [y/N]: ")
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (s *Shell) ask(prompt string) (string, bool) {
	s.printf("%s", prompt)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

// linePassword is used when input is not a terminal, e.g. piped scripts.
func (s *Shell) linePassword(prompt string) (string, error) {
	p, ok := s.ask(prompt)
	if !ok {
		return "", io.EOF
	}
	return p, nil
}

func (s *Shell) reportError(err error) {
	st := s.ctrl.Snapshot()
	if st.Error != "" || st.Notice != nil {
		return
	}
	switch {
	case errors.Is(err, errs.ErrNotAuthenticated):
		s.printf("Please log in first (login, register or guest).\n")
	case errors.Is(err, errs.ErrSignedIn):
		s.printf("Log out before registering a new account.\n")
	case errors.Is(err, errs.ErrNotFound):
		s.printf("No such book on this page.\n")
	case errors.Is(err, errs.ErrInvalidInput):
		s.printf("Invalid input: %v\n", err)
	default:
		s.printf("Error: %v\n", err)
	}
}

func (s *Shell) printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func bookID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(errs.ErrInvalidInput, "book id %q", arg)
	}
	return id, nil
}

func (s *Shell) help() {
	s.printf(`Commands:
  Account:  login [username], register, guest, mode, logout
  Catalog:  books [query], next, prev, show <id>, back
  Loans:    borrow <id>, return <id>, delete <id>
  Profile:  profile, history [next|prev], email <address>, phone <number>
  System:   help, exit
`)
}
