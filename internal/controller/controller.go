package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Astemirdum/library-client/internal/activity"
	"github.com/Astemirdum/library-client/internal/errs"
	"github.com/Astemirdum/library-client/internal/model"
	"github.com/Astemirdum/library-client/internal/session"
	"github.com/Astemirdum/library-client/pkg/openid"
	"github.com/Astemirdum/library-client/pkg/validate"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MsgConnection     = "Unable to reach the server or the session has expired."
	MsgLoginFailed    = "Login failed, please check your username and password."
	MsgMissingLogin   = "Username and password are required."
	MsgUnknown        = "Unknown error"
	MsgGuestPrompt    = "Please log in to borrow or return books."
	MsgGuestProfile   = "Please log in to view your profile."
	MsgNotAdmin       = "Only administrators can delete books."
	MsgRegistered     = "Registration successful, please log in."
	MsgSessionSave    = "Unable to save the session."
	MsgProfileUpdated = "Profile updated."
	MsgNothingToSave  = "Nothing to update."
)

// Confirm asks the user to approve a destructive action.
type Confirm func(ctx context.Context, prompt string) bool

// Controller owns the client-side view state. Network calls run without the lock held;
// responses are folded in only while the session that issued them is still current.
type Controller struct {
	mu    sync.Mutex
	state State
	// epoch changes on logout and guest entry, dropping late responses.
	epoch uint64

	api       LibraryAPI
	store     SessionStore
	publisher Publisher
	validator *validate.CustomValidator
	log       *zap.Logger
	now       func() time.Time
}

// Publisher receives an event after each successful login, borrow, return and delete.
type Publisher = activity.Publisher

type Option func(c *Controller)

func WithPublisher(p Publisher) Option {
	return func(c *Controller) {
		if p != nil {
			c.publisher = p
		}
	}
}

func New(log *zap.Logger, api LibraryAPI, store SessionStore, opts ...Option) *Controller {
	c := &Controller{
		state:     initialState(),
		api:       api,
		store:     store,
		publisher: activity.Noop{},
		validator: validate.NewCustomValidator(),
		log:       log.Named("controller"),
		now:       time.Now,
	}
	for _, op := range opts {
		op(c)
	}
	return c
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) Authenticate(ctx context.Context, username, password string) error {
	creds := model.Credentials{Username: strings.TrimSpace(username), Password: password}
	epoch := c.currentEpoch()
	if err := c.validator.Validate(creds); err != nil {
		c.apply(epoch, func(s *State) { s.Error = MsgMissingLogin })
		return errors.Wrap(errs.ErrInvalidInput, err.Error())
	}

	pair, err := c.api.Token(ctx, creds)
	if err != nil {
		c.log.Warn("Authenticate", zap.String("username", creds.Username), zap.Error(err))
		msg := MsgLoginFailed
		if kind(err) == errs.KindTransport || kind(err) == errs.KindServer {
			msg = MsgConnection
		}
		c.apply(epoch, func(s *State) { s.Error = msg })
		return err
	}

	if err := c.store.Save(ctx, session.Credentials{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		Username:     creds.Username,
	}); err != nil {
		c.log.Error("Authenticate store.Save", zap.Error(err))
		c.apply(epoch, func(s *State) { s.Error = MsgSessionSave })
		return err
	}

	c.mu.Lock()
	c.epoch++
	c.state = initialState()
	c.state.View = ViewHome
	c.state.Session = Session{Username: creds.Username, IsAuthenticated: true}
	c.mu.Unlock()

	c.log.Info("authenticated", zap.String("username", creds.Username))
	c.publish(ctx, creds.Username, activity.ActionLogin, 0)
	c.loadSession(ctx)
	return nil
}

// Restore resumes a session persisted by an earlier run. A session whose access token has
// already expired is forgotten instead.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	creds, err := c.store.Load(ctx)
	if err != nil {
		c.log.Error("Restore store.Load", zap.Error(err))
		return false, err
	}
	if !creds.Valid() {
		return false, nil
	}
	if openid.Expired(creds.AccessToken, c.now()) {
		c.log.Info("saved session expired", zap.String("username", creds.Username))
		if err := c.store.Clear(ctx); err != nil {
			c.log.Warn("Restore store.Clear", zap.Error(err))
		}
		return false, nil
	}
	c.mu.Lock()
	c.epoch++
	c.state = initialState()
	c.state.View = ViewHome
	c.state.Session = Session{Username: creds.Username, IsAuthenticated: true}
	c.mu.Unlock()

	c.log.Info("session restored", zap.String("username", creds.Username))
	c.loadSession(ctx)
	return true, nil
}

// loadSession fetches the catalog and the profile side by side.
func (c *Controller) loadSession(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		return c.LoadCatalog(ctx, "")
	})
	g.Go(func() error {
		return c.loadProfile(ctx)
	})
	_ = g.Wait() // failures already surfaced in state
}

func (c *Controller) loadProfile(ctx context.Context) error {
	epoch := c.currentEpoch()
	p, err := c.api.Me(ctx)
	if err != nil {
		c.log.Error("loadProfile", zap.Error(err))
		c.apply(epoch, func(s *State) { s.Notice = errorNotice("Loading profile", err) })
		return err
	}
	c.apply(epoch, func(s *State) {
		s.Profile = &p
		s.Session.IsAdmin = p.IsStaff
	})
	return nil
}

func (c *Controller) Register(ctx context.Context, req model.RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	c.mu.Lock()
	if c.state.Session.Active() || (c.state.View != ViewLogin && c.state.View != ViewRegister) {
		c.mu.Unlock()
		return errs.ErrSignedIn
	}
	epoch := c.epoch
	c.mu.Unlock()
	if err := c.validator.Validate(req); err != nil {
		c.apply(epoch, func(s *State) { s.Error = "Registration failed: " + err.Error() })
		return errors.Wrap(errs.ErrInvalidInput, err.Error())
	}

	if err := c.api.Register(ctx, req); err != nil {
		c.log.Warn("Register", zap.String("username", req.Username), zap.Error(err))
		msg := "Registration failed: " + userMessage(err)
		if apiErr, ok := errs.AsAPIError(err); ok && apiErr.Kind == errs.KindValidation && len(apiErr.Payload) > 0 {
			msg = "Registration failed: " + string(apiErr.Payload)
		}
		c.apply(epoch, func(s *State) { s.Error = msg })
		return err
	}

	c.apply(epoch, func(s *State) {
		s.View = ViewLogin
		s.Error = ""
		s.Notice = &Notice{Level: NoticeSuccess, Text: MsgRegistered}
	})
	return nil
}

// EnterAsGuest starts a read-only session.
func (c *Controller) EnterAsGuest(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn("EnterAsGuest store.Clear", zap.Error(err))
	}
	c.mu.Lock()
	c.epoch++
	c.state = initialState()
	c.state.View = ViewHome
	c.state.Session = Session{IsGuest: true}
	c.mu.Unlock()
	return c.LoadCatalog(ctx, "")
}

// ToggleAuthMode flips between the login and registration forms.
func (c *Controller) ToggleAuthMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.View {
	case ViewLogin:
		c.state.View = ViewRegister
	case ViewRegister:
		c.state.View = ViewLogin
	default:
		return
	}
	c.state.Error = ""
}

// LoadCatalog loads a catalog page. An empty pageURL means the first page of the current
// search; a cursor is followed as is.
func (c *Controller) LoadCatalog(ctx context.Context, pageURL string) error {
	c.mu.Lock()
	if !c.state.Session.Active() {
		c.mu.Unlock()
		return errs.ErrNotAuthenticated
	}
	q := model.CatalogQuery{URL: pageURL}
	if pageURL == "" {
		q.Search = c.state.Catalog.Search
	}
	epoch := c.epoch
	c.mu.Unlock()

	page, err := c.api.Books(ctx, q)
	if err != nil {
		c.log.Error("LoadCatalog", zap.String("url", q.URL), zap.String("search", q.Search), zap.Error(err))
		c.apply(epoch, func(s *State) { s.Error = userMessage(err) })
		return err
	}
	c.apply(epoch, func(s *State) {
		s.Catalog.Books = page.Items
		if page.Kind == model.Paginated {
			s.Catalog.Next, s.Catalog.Previous = page.Next, page.Previous
		} else {
			s.Catalog.Next, s.Catalog.Previous = "", ""
		}
		s.Error = ""
	})
	return nil
}

// Search replaces the catalog with the first page of matches.
func (c *Controller) Search(ctx context.Context, query string) error {
	c.mu.Lock()
	if !c.state.Session.Active() {
		c.mu.Unlock()
		return errs.ErrNotAuthenticated
	}
	c.state.Catalog.Search = strings.TrimSpace(query)
	c.mu.Unlock()
	return c.LoadCatalog(ctx, "")
}

func (c *Controller) NextPage(ctx context.Context) error {
	c.mu.Lock()
	next := c.state.Catalog.Next
	c.mu.Unlock()
	if next == "" {
		return nil
	}
	return c.LoadCatalog(ctx, next)
}

func (c *Controller) PreviousPage(ctx context.Context) error {
	c.mu.Lock()
	prev := c.state.Catalog.Previous
	c.mu.Unlock()
	if prev == "" {
		return nil
	}
	return c.LoadCatalog(ctx, prev)
}

func (c *Controller) LoadMyCurrentLoans(ctx context.Context) error {
	epoch, _, err := c.requireMember(MsgGuestProfile)
	if err != nil {
		return err
	}
	records, err := c.api.MyBorrowedBooks(ctx)
	if err != nil {
		c.log.Error("LoadMyCurrentLoans", zap.Error(err))
		c.apply(epoch, func(s *State) { s.Notice = errorNotice("Loading loans", err) })
		return err
	}
	if records == nil {
		records = []model.BorrowRecord{}
	}
	c.apply(epoch, func(s *State) { s.Loans = records })
	return nil
}

func (c *Controller) LoadLoanHistory(ctx context.Context, pageURL string) error {
	epoch, _, err := c.requireMember(MsgGuestProfile)
	if err != nil {
		return err
	}
	page, err := c.api.BorrowHistory(ctx, pageURL)
	if err != nil {
		c.log.Error("LoadLoanHistory", zap.String("url", pageURL), zap.Error(err))
		c.apply(epoch, func(s *State) { s.Notice = errorNotice("Loading history", err) })
		return err
	}
	c.apply(epoch, func(s *State) {
		s.History = History{Records: page.Items}
		if page.Kind == model.Paginated {
			s.History.Next, s.History.Previous = page.Next, page.Previous
		}
	})
	return nil
}

// HistoryPage follows the history cursor forward or backward.
func (c *Controller) HistoryPage(ctx context.Context, forward bool) error {
	c.mu.Lock()
	cursor := c.state.History.Previous
	if forward {
		cursor = c.state.History.Next
	}
	c.mu.Unlock()
	if cursor == "" {
		return nil
	}
	return c.LoadLoanHistory(ctx, cursor)
}

// OpenProfile shows the profile view and loads current loans and history concurrently.
func (c *Controller) OpenProfile(ctx context.Context) error {
	if _, _, err := c.requireMember(MsgGuestProfile); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.View = ViewProfile
	c.state.Selected = nil
	c.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		return c.LoadMyCurrentLoans(ctx)
	})
	g.Go(func() error {
		return c.LoadLoanHistory(ctx, "")
	})
	return g.Wait()
}

func (c *Controller) SelectBook(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Session.Active() {
		return errs.ErrNotAuthenticated
	}
	book, ok := c.state.Book(id)
	if !ok {
		for _, rec := range c.state.Loans {
			if rec.Book.ID == id {
				book, ok = rec.Book, true
				break
			}
		}
	}
	if !ok {
		return errors.Wrapf(errs.ErrNotFound, "book %d", id)
	}
	b := cloneBook(book)
	c.state.Selected = &b
	c.state.View = ViewDetail
	return nil
}

// Back returns to the catalog from the detail or profile view.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.View {
	case ViewDetail, ViewProfile:
		c.state.View = ViewHome
		c.state.Selected = nil
	}
}

func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Notice = nil
}

func (c *Controller) Borrow(ctx context.Context, bookID int) error {
	epoch, username, err := c.requireMember(MsgGuestPrompt)
	if err != nil {
		return err
	}
	title := c.titleOf(bookID)

	res, err := c.api.Borrow(ctx, bookID)
	if err != nil {
		c.log.Warn("Borrow", zap.Int("book_id", bookID), zap.Error(err))
		c.apply(epoch, func(s *State) { s.Notice = errorNotice("Borrow", err) })
		return err
	}
	c.apply(epoch, func(s *State) {
		applyLoan(s, bookID, res)
		s.Notice = &Notice{Level: NoticeSuccess, Text: fmt.Sprintf("Borrowed %q.", title)}
	})
	c.publish(ctx, username, activity.ActionBorrow, bookID)
	return nil
}

func (c *Controller) Return(ctx context.Context, bookID int) error {
	epoch, username, err := c.requireMember(MsgGuestPrompt)
	if err != nil {
		return err
	}
	title := c.titleOf(bookID)

	res, err := c.api.ReturnBook(ctx, bookID)
	if err != nil {
		c.log.Warn("Return", zap.Int("book_id", bookID), zap.Error(err))
		c.apply(epoch, func(s *State) { s.Notice = errorNotice("Return", err) })
		return err
	}
	c.apply(epoch, func(s *State) {
		applyLoan(s, bookID, res)
		loans := s.Loans[:0]
		for _, rec := range s.Loans {
			if rec.Book.ID != bookID {
				loans = append(loans, rec)
			}
		}
		s.Loans = loans
		s.Notice = &Notice{Level: NoticeSuccess, Text: fmt.Sprintf("Returned %q.", title)}
	})
	c.publish(ctx, username, activity.ActionReturn, bookID)

	// a new history entry exists now
	if err := c.LoadLoanHistory(ctx, ""); err != nil {
		c.log.Warn("Return history reload", zap.Error(err))
	}
	return nil
}

// DeleteBook removes a book after confirm approves it. A declined confirmation is a no-op.
func (c *Controller) DeleteBook(ctx context.Context, bookID int, confirm Confirm) error {
	epoch, username, err := c.requireMember(MsgGuestPrompt)
	if err != nil {
		return err
	}
	c.mu.Lock()
	isAdmin := c.state.Session.IsAdmin
	if !isAdmin {
		c.state.Notice = &Notice{Level: NoticeInfo, Text: MsgNotAdmin}
	}
	c.mu.Unlock()
	if !isAdmin {
		return errs.ErrNotAdmin
	}

	title := c.titleOf(bookID)
	if confirm == nil || !confirm(ctx, fmt.Sprintf("Delete %q? This cannot be undone.", title)) {
		c.log.Debug("DeleteBook cancelled", zap.Int("book_id", bookID))
		return nil
	}

	if err := c.api.DeleteBook(ctx, bookID); err != nil {
		c.log.Warn("DeleteBook", zap.Int("book_id", bookID), zap.Error(err))
		c.apply(epoch, func(s *State) { s.Notice = errorNotice("Delete", err) })
		return err
	}
	c.apply(epoch, func(s *State) {
		books := s.Catalog.Books[:0]
		for _, b := range s.Catalog.Books {
			if b.ID != bookID {
				books = append(books, b)
			}
		}
		s.Catalog.Books = books
		if s.View == ViewDetail && s.Selected != nil && s.Selected.ID == bookID {
			s.View = ViewHome
			s.Selected = nil
		}
		s.Notice = &Notice{Level: NoticeSuccess, Text: fmt.Sprintf("Deleted %q.", title)}
	})
	c.publish(ctx, username, activity.ActionDelete, bookID)
	return nil
}

func (c *Controller) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) error {
	epoch, _, err := c.requireMember(MsgGuestProfile)
	if err != nil {
		return err
	}
	if upd.Empty() {
		c.apply(epoch, func(s *State) { s.Notice = &Notice{Level: NoticeInfo, Text: MsgNothingToSave} })
		return errs.ErrInvalidInput
	}
	if err := c.validator.Validate(upd); err != nil {
		c.apply(epoch, func(s *State) {
			s.Notice = &Notice{Level: NoticeError, Text: "Update failed: " + err.Error()}
		})
		return errors.Wrap(errs.ErrInvalidInput, err.Error())
	}

	p, err := c.api.UpdateMe(ctx, upd)
	if err != nil {
		c.log.Warn("UpdateProfile", zap.Error(err))
		c.apply(epoch, func(s *State) { s.Notice = errorNotice("Update", err) })
		return err
	}
	c.apply(epoch, func(s *State) {
		s.Profile = &p
		s.Session.IsAdmin = p.IsStaff
		s.Notice = &Notice{Level: NoticeSuccess, Text: MsgProfileUpdated}
	})
	return nil
}

// Logout forgets the persisted session and resets all state.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.store.Clear(ctx)
	if err != nil {
		c.log.Error("Logout store.Clear", zap.Error(err))
	}
	c.mu.Lock()
	username := c.state.Session.Username
	c.epoch++
	c.state = initialState()
	c.mu.Unlock()
	c.log.Info("logged out", zap.String("username", username))
	return err
}

func (c *Controller) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// apply mutates state unless the session changed since epoch was taken.
func (c *Controller) apply(epoch uint64, fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("stale response dropped")
		return
	}
	fn(&c.state)
}

// requireMember gates actions guests may not take, showing prompt to them.
func (c *Controller) requireMember(prompt string) (uint64, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Session.IsGuest {
		c.state.Notice = &Notice{Level: NoticeInfo, Text: prompt}
		return 0, "", errs.ErrGuest
	}
	if !c.state.Session.IsAuthenticated {
		return 0, "", errs.ErrNotAuthenticated
	}
	return c.epoch, c.state.Session.Username, nil
}

func (c *Controller) titleOf(bookID int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.state.Book(bookID); ok {
		return b.Title
	}
	for _, rec := range c.state.Loans {
		if rec.Book.ID == bookID {
			return rec.Book.Title
		}
	}
	if c.state.Selected != nil && c.state.Selected.ID == bookID {
		return c.state.Selected.Title
	}
	return fmt.Sprintf("book #%d", bookID)
}

func (c *Controller) publish(ctx context.Context, username string, action activity.Action, bookID int) {
	if err := c.publisher.Publish(ctx, activity.NewEvent(username, action, bookID)); err != nil {
		c.log.Warn("publish activity", zap.String("action", string(action)), zap.Error(err))
	}
}

// applyLoan copies the server's quantity and status onto every local copy of the book.
func applyLoan(s *State, bookID int, res model.LoanResult) {
	for i := range s.Catalog.Books {
		if s.Catalog.Books[i].ID == bookID {
			s.Catalog.Books[i].Quantity = res.Quantity
			s.Catalog.Books[i].UserStatus = res.UserStatus
		}
	}
	if s.Selected != nil && s.Selected.ID == bookID {
		s.Selected.Quantity = res.Quantity
		s.Selected.UserStatus = res.UserStatus
	}
	for i := range s.Loans {
		if s.Loans[i].Book.ID == bookID {
			s.Loans[i].Book.Quantity = res.Quantity
			s.Loans[i].Book.UserStatus = res.UserStatus
		}
	}
}

func kind(err error) errs.Kind {
	if apiErr, ok := errs.AsAPIError(err); ok {
		return apiErr.Kind
	}
	return 0
}

// userMessage keeps backend wording for validation and business-rule failures only.
func userMessage(err error) string {
	apiErr, ok := errs.AsAPIError(err)
	if !ok {
		return MsgUnknown
	}
	switch apiErr.Kind {
	case errs.KindValidation, errs.KindRejected:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgUnknown
	default:
		return MsgConnection
	}
}

func errorNotice(op string, err error) *Notice {
	return &Notice{Level: NoticeError, Text: op + " failed: " + userMessage(err)}
}
