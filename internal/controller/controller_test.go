package controller_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Astemirdum/library-client/internal/controller"
	"github.com/Astemirdum/library-client/internal/errs"
	"github.com/Astemirdum/library-client/internal/model"
	"github.com/Astemirdum/library-client/internal/session"
	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/Astemirdum/library-client/internal/controller/mocks"
)

var (
	dune   = model.Book{ID: 1, Title: "Dune", Quantity: 3, UserStatus: model.StatusAvailable}
	hobbit = model.Book{ID: 2, Title: "The Hobbit", Quantity: 0, UserStatus: model.StatusNoStock}
	emma   = model.Book{ID: 3, Title: "Emma", Quantity: 1, UserStatus: model.StatusBorrowed}
)

func catalog(books ...model.Book) model.Page[model.Book] {
	return model.Page[model.Book]{Kind: model.Unpaginated, Items: books, Count: len(books)}
}

func newController(t *testing.T) (*controller.Controller, *service_mocks.MockLibraryAPI, *session.Memory) {
	t.Helper()
	c := gomock.NewController(t)
	api := service_mocks.NewMockLibraryAPI(c)
	store := session.NewMemory()
	log := zap.NewExample().Named("test")
	return controller.New(log, api, store), api, store
}

func login(t *testing.T, ctrl *controller.Controller, api *service_mocks.MockLibraryAPI, isStaff bool, books ...model.Book) {
	t.Helper()
	api.EXPECT().
		Token(gomock.Any(), model.Credentials{Username: "alice", Password: "secret"}).
		Return(model.TokenPair{Access: "acc", Refresh: "ref"}, nil)
	api.EXPECT().Books(gomock.Any(), model.CatalogQuery{}).Return(catalog(books...), nil)
	api.EXPECT().Me(gomock.Any()).Return(model.Profile{Username: "alice", Email: "a@example.com", IsStaff: isStaff}, nil)
	require.NoError(t, ctrl.Authenticate(context.Background(), " alice ", "secret"))
}

func TestController_Authenticate(t *testing.T) {
	t.Parallel()
	ctrl, api, store := newController(t)
	login(t, ctrl, api, true, dune, hobbit)

	st := ctrl.Snapshot()
	require.Equal(t, controller.ViewHome, st.View)
	require.Equal(t, controller.Session{Username: "alice", IsAuthenticated: true, IsAdmin: true}, st.Session)
	require.Equal(t, []model.Book{dune, hobbit}, st.Catalog.Books)
	require.NotNil(t, st.Profile)
	require.Equal(t, "a@example.com", st.Profile.Email)
	require.Empty(t, st.Error)

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.Credentials{AccessToken: "acc", RefreshToken: "ref", Username: "alice"}, creds)
}

func TestController_AuthenticateFailure(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		username  string
		password  string
		mock      func(api *service_mocks.MockLibraryAPI)
		wantError string
		wantIs    error
	}{
		{
			name:     "bad credentials",
			username: "alice",
			password: "nope",
			mock: func(api *service_mocks.MockLibraryAPI) {
				api.EXPECT().Token(gomock.Any(), gomock.Any()).Return(model.TokenPair{}, &errs.APIError{
					Kind:    errs.KindAuth,
					Status:  http.StatusUnauthorized,
					Message: "No active account found with the given credentials",
				})
			},
			wantError: controller.MsgLoginFailed,
		},
		{
			name:     "backend down",
			username: "alice",
			password: "secret",
			mock: func(api *service_mocks.MockLibraryAPI) {
				api.EXPECT().Token(gomock.Any(), gomock.Any()).Return(model.TokenPair{}, errs.Transport(context.DeadlineExceeded))
			},
			wantError: controller.MsgConnection,
		},
		{
			name:      "empty password",
			username:  "alice",
			mock:      func(api *service_mocks.MockLibraryAPI) {},
			wantError: controller.MsgMissingLogin,
			wantIs:    errs.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl, api, store := newController(t)
			tt.mock(api)

			err := ctrl.Authenticate(context.Background(), tt.username, tt.password)
			require.Error(t, err)
			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
			}
			st := ctrl.Snapshot()
			require.Equal(t, controller.ViewLogin, st.View)
			require.Equal(t, tt.wantError, st.Error)
			require.False(t, st.Session.Active())
			creds, _ := store.Load(context.Background())
			require.False(t, creds.Valid())
		})
	}
}

func TestController_BorrowScenario(t *testing.T) {
	t.Parallel()
	ctrl, api, _ := newController(t)
	login(t, ctrl, api, false, dune, hobbit)
	require.Equal(t, model.ActionBorrow, ctrl.Snapshot().Catalog.Books[0].Action(false))

	api.EXPECT().Borrow(gomock.Any(), dune.ID).
		Return(model.LoanResult{Status: "success", Quantity: 2, UserStatus: model.StatusBorrowed}, nil)
	require.NoError(t, ctrl.Borrow(context.Background(), dune.ID))

	st := ctrl.Snapshot()
	book, ok := st.Book(dune.ID)
	require.True(t, ok)
	require.Equal(t, 2, book.Quantity)
	require.Equal(t, model.StatusBorrowed, book.UserStatus)
	require.Equal(t, model.ActionReturn, book.Action(st.Session.IsGuest))
	require.Equal(t, &controller.Notice{Level: controller.NoticeSuccess, Text: `Borrowed "Dune".`}, st.Notice)

	other, _ := st.Book(hobbit.ID)
	require.Equal(t, hobbit, other)
	require.Equal(t, model.ActionUnavailable, other.Action(false))
}

func TestController_BorrowRejected(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		wantNotice string
	}{
		{
			name:       "backend message shown verbatim",
			err:        &errs.APIError{Kind: errs.KindRejected, Status: http.StatusBadRequest, Message: "Out of stock"},
			wantNotice: "Borrow failed: Out of stock",
		},
		{
			name:       "no message falls back",
			err:        &errs.APIError{Kind: errs.KindRejected, Status: http.StatusNotFound},
			wantNotice: "Borrow failed: " + controller.MsgUnknown,
		},
		{
			name:       "expired token is generic",
			err:        &errs.APIError{Kind: errs.KindAuth, Status: http.StatusUnauthorized, Message: "token expired"},
			wantNotice: "Borrow failed: " + controller.MsgConnection,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl, api, _ := newController(t)
			login(t, ctrl, api, false, dune)
			api.EXPECT().Borrow(gomock.Any(), dune.ID).Return(model.LoanResult{}, tt.err)

			require.Error(t, ctrl.Borrow(context.Background(), dune.ID))
			st := ctrl.Snapshot()
			require.Equal(t, controller.NoticeError, st.Notice.Level)
			require.Equal(t, tt.wantNotice, st.Notice.Text)
			book, _ := st.Book(dune.ID)
			require.Equal(t, dune, book)
			require.True(t, st.Session.IsAuthenticated)
		})
	}
}

func TestController_ReturnFromProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl, api, _ := newController(t)
	login(t, ctrl, api, false, dune, emma)

	loan := model.BorrowRecord{ID: 10, Book: emma}
	api.EXPECT().MyBorrowedBooks(gomock.Any()).Return([]model.BorrowRecord{loan}, nil)
	api.EXPECT().BorrowHistory(gomock.Any(), "").Return(model.Page[model.HistoryRecord]{Items: []model.HistoryRecord{}}, nil)
	require.NoError(t, ctrl.OpenProfile(ctx))

	st := ctrl.Snapshot()
	require.Equal(t, controller.ViewProfile, st.View)
	require.Equal(t, []model.BorrowRecord{loan}, st.Loans)

	returned := model.HistoryRecord{ID: 10, Book: emma}
	gomock.InOrder(
		api.EXPECT().ReturnBook(gomock.Any(), emma.ID).
			Return(model.LoanResult{Quantity: 2, UserStatus: model.StatusAvailable}, nil),
		api.EXPECT().BorrowHistory(gomock.Any(), "").
			Return(model.Page[model.HistoryRecord]{Kind: model.Paginated, Items: []model.HistoryRecord{returned}}, nil),
	)
	require.NoError(t, ctrl.Return(ctx, emma.ID))

	st = ctrl.Snapshot()
	require.Empty(t, st.Loans)
	require.Len(t, st.History.Records, 1)
	require.Equal(t, emma.ID, st.History.Records[0].Book.ID)
	book, _ := st.Book(emma.ID)
	require.Equal(t, 2, book.Quantity)
	require.Equal(t, model.StatusAvailable, book.UserStatus)
	require.Equal(t, controller.ViewProfile, st.View)

	ctrl.Back()
	require.Equal(t, controller.ViewHome, ctrl.Snapshot().View)
}

func TestController_Guest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl, api, store := newController(t)
	require.NoError(t, store.Save(ctx, session.Credentials{AccessToken: "stale", Username: "old"}))

	api.EXPECT().Books(gomock.Any(), model.CatalogQuery{}).Return(catalog(dune), nil)
	require.NoError(t, ctrl.EnterAsGuest(ctx))

	creds, _ := store.Load(ctx)
	require.Equal(t, session.Credentials{}, creds)
	st := ctrl.Snapshot()
	require.True(t, st.Session.IsGuest)
	require.False(t, st.Session.IsAuthenticated)
	require.Equal(t, controller.ViewHome, st.View)
	require.Equal(t, model.ActionLogin, st.Catalog.Books[0].Action(st.Session.IsGuest))

	// no API expectations: any network call fails the test
	require.ErrorIs(t, ctrl.Borrow(ctx, dune.ID), errs.ErrGuest)
	require.Equal(t, controller.MsgGuestPrompt, ctrl.Snapshot().Notice.Text)
	require.ErrorIs(t, ctrl.Return(ctx, dune.ID), errs.ErrGuest)
	require.ErrorIs(t, ctrl.DeleteBook(ctx, dune.ID, func(context.Context, string) bool { return true }), errs.ErrGuest)
	require.ErrorIs(t, ctrl.OpenProfile(ctx), errs.ErrGuest)
	require.Equal(t, controller.MsgGuestProfile, ctrl.Snapshot().Notice.Text)

	require.NoError(t, ctrl.SelectBook(dune.ID))
	require.Equal(t, controller.ViewDetail, ctrl.Snapshot().View)
}

func TestController_SearchAndPaging(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl, api, _ := newController(t)
	login(t, ctrl, api, false, dune, hobbit)

	lotr := model.Book{ID: 7, Title: "The Lord of the Rings", Quantity: 1}
	next := "http://127.0.0.1:8000/api/books/?page=2&search=Tolkien"
	api.EXPECT().Books(gomock.Any(), model.CatalogQuery{Search: "Tolkien"}).
		Return(model.Page[model.Book]{Kind: model.Paginated, Items: []model.Book{hobbit}, Next: next}, nil)
	require.NoError(t, ctrl.Search(ctx, "  Tolkien "))

	st := ctrl.Snapshot()
	require.Equal(t, "Tolkien", st.Catalog.Search)
	require.Equal(t, []model.Book{hobbit}, st.Catalog.Books)
	require.Equal(t, next, st.Catalog.Next)
	require.Empty(t, st.Catalog.Previous)

	api.EXPECT().Books(gomock.Any(), model.CatalogQuery{URL: next}).
		Return(model.Page[model.Book]{Kind: model.Paginated, Items: []model.Book{lotr}, Previous: "http://127.0.0.1:8000/api/books/?search=Tolkien"}, nil)
	require.NoError(t, ctrl.NextPage(ctx))
	st = ctrl.Snapshot()
	require.Equal(t, []model.Book{lotr}, st.Catalog.Books)
	require.Empty(t, st.Catalog.Next)

	// end of list
	require.NoError(t, ctrl.NextPage(ctx))

	api.EXPECT().Books(gomock.Any(), model.CatalogQuery{}).Return(catalog(dune), nil)
	require.NoError(t, ctrl.Search(ctx, ""))
	st = ctrl.Snapshot()
	require.Empty(t, st.Catalog.Next)
	require.Empty(t, st.Catalog.Previous)
	require.Equal(t, []model.Book{dune}, st.Catalog.Books)
}

func TestController_CatalogFailureKeepsController(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl, api, _ := newController(t)
	login(t, ctrl, api, false, dune)

	api.EXPECT().Books(gomock.Any(), model.CatalogQuery{}).Return(model.Page[model.Book]{}, errs.Transport(context.Canceled))
	require.Error(t, ctrl.LoadCatalog(ctx, ""))
	st := ctrl.Snapshot()
	require.Equal(t, controller.MsgConnection, st.Error)
	require.Equal(t, []model.Book{dune}, st.Catalog.Books)

	api.EXPECT().Books(gomock.Any(), model.CatalogQuery{}).Return(catalog(dune, hobbit), nil)
	require.NoError(t, ctrl.LoadCatalog(ctx, ""))
	require.Empty(t, ctrl.Snapshot().Error)
}

func TestController_DeleteBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	yes := func(context.Context, string) bool { return true }

	t.Run("not admin", func(t *testing.T) {
		t.Parallel()
		ctrl, api, _ := newController(t)
		login(t, ctrl, api, false, dune)
		require.ErrorIs(t, ctrl.DeleteBook(ctx, dune.ID, yes), errs.ErrNotAdmin)
		require.Equal(t, controller.MsgNotAdmin, ctrl.Snapshot().Notice.Text)
	})

	t.Run("declined", func(t *testing.T) {
		t.Parallel()
		ctrl, api, _ := newController(t)
		login(t, ctrl, api, true, dune)
		var prompt string
		require.NoError(t, ctrl.DeleteBook(ctx, dune.ID, func(_ context.Context, p string) bool {
			prompt = p
			return false
		}))
		require.Contains(t, prompt, `"Dune"`)
		st := ctrl.Snapshot()
		require.Len(t, st.Catalog.Books, 1)
		require.Nil(t, st.Notice)
	})

	t.Run("confirmed from detail view", func(t *testing.T) {
		t.Parallel()
		ctrl, api, _ := newController(t)
		login(t, ctrl, api, true, dune, hobbit)
		require.NoError(t, ctrl.SelectBook(dune.ID))
		require.Equal(t, controller.ViewDetail, ctrl.Snapshot().View)

		api.EXPECT().DeleteBook(gomock.Any(), dune.ID).Return(nil)
		require.NoError(t, ctrl.DeleteBook(ctx, dune.ID, yes))

		st := ctrl.Snapshot()
		require.Equal(t, controller.ViewHome, st.View)
		require.Nil(t, st.Selected)
		require.Equal(t, []model.Book{hobbit}, st.Catalog.Books)
	})

	t.Run("permission denied by backend", func(t *testing.T) {
		t.Parallel()
		ctrl, api, _ := newController(t)
		login(t, ctrl, api, true, dune)
		api.EXPECT().DeleteBook(gomock.Any(), dune.ID).Return(&errs.APIError{
			Kind: errs.KindRejected, Status: http.StatusForbidden, Message: "You do not have permission to perform this action.",
		})
		require.Error(t, ctrl.DeleteBook(ctx, dune.ID, yes))
		st := ctrl.Snapshot()
		require.Equal(t, "Delete failed: You do not have permission to perform this action.", st.Notice.Text)
		require.Len(t, st.Catalog.Books, 1)
	})

	t.Run("expired token forgotten", func(t *testing.T) {
		t.Parallel()
		ctrl, _, store := newController(t)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(-time.Hour).Unix(),
		}).SignedString([]byte("k"))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, session.Credentials{AccessToken: token, Username: "alice"}))

		ok, err := ctrl.Restore(ctx)
		require.NoError(t, err)
		require.False(t, ok)
		creds, _ := store.Load(ctx)
		require.False(t, creds.Valid())
		require.Equal(t, controller.ViewLogin, ctrl.Snapshot().View)
	})
}

func TestController_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl, api, store := newController(t)
	login(t, ctrl, api, true, dune, hobbit)

	api.EXPECT().Books(gomock.Any(), model.CatalogQuery{Search: "dune"}).Return(catalog(dune), nil)
	require.NoError(t, ctrl.Search(ctx, "dune"))
	require.NoError(t, ctrl.SelectBook(dune.ID))

	require.NoError(t, ctrl.Logout(ctx))

	st := ctrl.Snapshot()
	require.Equal(t, controller.ViewLogin, st.View)
	require.Equal(t, controller.Session{}, st.Session)
	require.Empty(t, st.Catalog.Books)
	require.Empty(t, st.Catalog.Search)
	require.Nil(t, st.Selected)
	require.Nil(t, st.Profile)
	require.Empty(t, st.Loans)
	require.Empty(t, st.History.Records)
	creds, _ := store.Load(ctx)
	require.Equal(t, session.Credentials{}, creds)

	require.ErrorIs(t, ctrl.LoadCatalog(ctx, ""), errs.ErrNotAuthenticated)
	require.ErrorIs(t, ctrl.Borrow(ctx, dune.ID), errs.ErrNotAuthenticated)
}

func TestController_StaleResponseDropped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl, api, _ := newController(t)
	login(t, ctrl, api, false, dune)

	api.EXPECT().Borrow(gomock.Any(), dune.ID).DoAndReturn(func(ctx context.Context, _ int) (model.LoanResult, error) {
		require.NoError(t, ctrl.Logout(ctx))
		return model.LoanResult{Quantity: 2, UserStatus: model.StatusBorrowed}, nil
	})
	require.NoError(t, ctrl.Borrow(ctx, dune.ID))

	st := ctrl.Snapshot()
	require.Empty(t, st.Catalog.Books)
	require.Nil(t, st.Notice)
}

func TestController_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		ctrl, api, _ := newController(t)
		ctrl.ToggleAuthMode()
		require.Equal(t, controller.ViewRegister, ctrl.Snapshot().View)

		req := model.RegisterRequest{Username: "bob", Password: "pw", Email: "bob@example.com"}
		api.EXPECT().Register(gomock.Any(), req).Return(nil)
		require.NoError(t, ctrl.Register(ctx, req))

		st := ctrl.Snapshot()
		require.Equal(t, controller.ViewLogin, st.View)
		require.Equal(t, controller.MsgRegistered, st.Notice.Text)
	})

	t.Run("validation payload shown raw", func(t *testing.T) {
		t.Parallel()
		ctrl, api, _ := newController(t)
		ctrl.ToggleAuthMode()
		payload := `{"username":["A user with that username already exists."]}`
		api.EXPECT().Register(gomock.Any(), gomock.Any()).Return(&errs.APIError{
			Kind: errs.KindValidation, Status: http.StatusBadRequest, Payload: []byte(payload),
		})
		require.Error(t, ctrl.Register(ctx, model.RegisterRequest{Username: "bob", Password: "pw"}))

		st := ctrl.Snapshot()
		require.Equal(t, controller.ViewRegister, st.View)
		require.Equal(t, "Registration failed: "+payload, st.Error)

		ctrl.ToggleAuthMode()
		st = ctrl.Snapshot()
		require.Equal(t, controller.ViewLogin, st.View)
		require.Empty(t, st.Error)
	})

	t.Run("bad email rejected locally", func(t *testing.T) {
		t.Parallel()
		ctrl, _, _ := newController(t)
		err := ctrl.Register(ctx, model.RegisterRequest{Username: "bob", Password: "pw", Email: "not-an-email"})
		require.ErrorIs(t, err, errs.ErrInvalidInput)
		require.Contains(t, ctrl.Snapshot().Error, "Registration failed")
	})

	t.Run("signed in", func(t *testing.T) {
		t.Parallel()
		ctrl, api, _ := newController(t)
		login(t, ctrl, api, false, dune)

		err := ctrl.Register(ctx, model.RegisterRequest{Username: "bob", Password: "pw"})
		require.ErrorIs(t, err, errs.ErrSignedIn)
		st := ctrl.Snapshot()
		require.Equal(t, controller.ViewHome, st.View)
		require.True(t, st.Session.Active())
		require.Empty(t, st.Error)
	})

	t.Run("guest", func(t *testing.T) {
		t.Parallel()
		ctrl, api, _ := newController(t)
		api.EXPECT().Books(gomock.Any(), model.CatalogQuery{}).Return(catalog(dune), nil)
		require.NoError(t, ctrl.EnterAsGuest(ctx))

		err := ctrl.Register(ctx, model.RegisterRequest{Username: "bob", Password: "pw"})
		require.ErrorIs(t, err, errs.ErrSignedIn)
		require.Equal(t, controller.ViewHome, ctrl.Snapshot().View)
	})
}

func TestController_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl, api, _ := newController(t)
	login(t, ctrl, api, false, dune)

	email := "new@example.com"
	phone := "5550100"
	upd := model.ProfileUpdate{Email: &email, PhoneNumber: &phone}
	api.EXPECT().UpdateMe(gomock.Any(), upd).
		Return(model.Profile{Username: "alice", Email: email, PhoneNumber: phone}, nil)
	require.NoError(t, ctrl.UpdateProfile(ctx, upd))

	st := ctrl.Snapshot()
	require.Equal(t, &model.Profile{Username: "alice", Email: email, PhoneNumber: phone}, st.Profile)
	require.Equal(t, controller.MsgProfileUpdated, st.Notice.Text)

	require.ErrorIs(t, ctrl.UpdateProfile(ctx, model.ProfileUpdate{}), errs.ErrInvalidInput)
	bad := "nope"
	require.ErrorIs(t, ctrl.UpdateProfile(ctx, model.ProfileUpdate{Email: &bad}), errs.ErrInvalidInput)
}

func TestController_UpdateProfileFieldErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl, api, _ := newController(t)
	login(t, ctrl, api, false, dune)

	body := []byte(`{"phone_number":["Ensure this field has no more than 15 characters."]}`)
	phone := "5550100"
	api.EXPECT().UpdateMe(gomock.Any(), gomock.Any()).
		Return(model.Profile{}, errs.FromStatus(http.StatusBadRequest, body, "", true))

	require.Error(t, ctrl.UpdateProfile(ctx, model.ProfileUpdate{PhoneNumber: &phone}))
	st := ctrl.Snapshot()
	require.Equal(t, controller.NoticeError, st.Notice.Level)
	require.Equal(t, "Update failed: phone_number: Ensure this field has no more than 15 characters.", st.Notice.Text)
}

func TestController_SearchRequiresSession(t *testing.T) {
	t.Parallel()
	ctrl, _, _ := newController(t)

	require.ErrorIs(t, ctrl.Search(context.Background(), "dune"), errs.ErrNotAuthenticated)
	require.Empty(t, ctrl.Snapshot().Catalog.Search)
}

func TestController_Restore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("nothing saved", func(t *testing.T) {
		t.Parallel()
		ctrl, _, _ := newController(t)
		ok, err := ctrl.Restore(ctx)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, controller.ViewLogin, ctrl.Snapshot().View)
	})

	t.Run("saved session", func(t *testing.T) {
		t.Parallel()
		ctrl, api, store := newController(t)
		require.NoError(t, store.Save(ctx, session.Credentials{AccessToken: "acc", Username: "alice"}))
		api.EXPECT().Books(gomock.Any(), model.CatalogQuery{}).Return(catalog(dune), nil)
		api.EXPECT().Me(gomock.Any()).Return(model.Profile{Username: "alice"}, nil)

		ok, err := ctrl.Restore(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		st := ctrl.Snapshot()
		require.Equal(t, controller.ViewHome, st.View)
		require.Equal(t, "alice", st.Session.Username)
		require.Len(t, st.Catalog.Books, 1)
	})
}

func TestController_SnapshotIsCopy(t *testing.T) {
	t.Parallel()
	ctrl, api, _ := newController(t)
	login(t, ctrl, api, false, dune)

	st := ctrl.Snapshot()
	st.Catalog.Books[0].Quantity = 99
	st.Session.Username = "mallory"

	again := ctrl.Snapshot()
	require.Equal(t, 3, again.Catalog.Books[0].Quantity)
	require.Equal(t, "alice", again.Session.Username)
	require.ErrorIs(t, ctrl.SelectBook(42), errs.ErrNotFound)
}
