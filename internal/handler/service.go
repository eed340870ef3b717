package handler

import (
	"context"

	"github.com/Astemirdum/library-client/internal/controller"
	"github.com/Astemirdum/library-client/internal/model"
)

var _ Controller = (*controller.Controller)(nil)

// Controller is the set of intents the UI server forwards.
type Controller interface {
	Snapshot() controller.State
	Authenticate(ctx context.Context, username, password string) error
	Register(ctx context.Context, req model.RegisterRequest) error
	EnterAsGuest(ctx context.Context) error
	ToggleAuthMode()
	LoadCatalog(ctx context.Context, pageURL string) error
	Search(ctx context.Context, query string) error
	NextPage(ctx context.Context) error
	PreviousPage(ctx context.Context) error
	LoadMyCurrentLoans(ctx context.Context) error
	LoadLoanHistory(ctx context.Context, pageURL string) error
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
