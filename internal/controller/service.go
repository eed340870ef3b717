package controller

import (
	"context"

	"github.com/Astemirdum/library-client/internal/model"
	"github.com/Astemirdum/library-client/internal/service/library"
	"github.com/Astemirdum/library-client/internal/session"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var (
	_ LibraryAPI   = (*library.Service)(nil)
	_ SessionStore = (*session.Store)(nil)
	_ SessionStore = (*session.Memory)(nil)
)

type LibraryAPI interface {
	Token(ctx context.Context, creds model.Credentials) (model.TokenPair, error)
	Register(ctx context.Context, req model.RegisterRequest) error
	Me(ctx context.Context) (model.Profile, error)
	UpdateMe(ctx context.Context, upd model.ProfileUpdate) (model.Profile, error)
	Books(ctx context.Context, q model.CatalogQuery) (model.Page[model.Book], error)
	MyBorrowedBooks(ctx context.Context) ([]model.BorrowRecord, error)
	BorrowHistory(ctx context.Context, pageURL string) (model.Page[model.HistoryRecord], error)
	Borrow(ctx context.Context, bookID int) (model.LoanResult, error)
	ReturnBook(ctx context.Context, bookID int) (model.LoanResult, error)
	DeleteBook(ctx context.Context, bookID int) error
}

type SessionStore interface {
	Load(ctx context.Context) (session.Credentials, error)
	Save(ctx context.Context, creds session.Credentials) error
	Clear(ctx context.Context) error
}
