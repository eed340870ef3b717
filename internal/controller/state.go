package controller

import (
	"github.com/Astemirdum/library-client/internal/model"
)

type View uint8

const (
	ViewLogin View = iota
	ViewRegister
	ViewHome
	ViewProfile
	ViewDetail
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewHome:
		return "home"
	case ViewProfile:
		return "profile"
	case ViewDetail:
		return "detail"
	default:
		return "unknown"
	}
}

func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

type Session struct {
	Username        string `json:"username"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsGuest         bool   `json:"isGuest"`
	IsAdmin         bool   `json:"isAdmin"`
}

// Active reports whether the session may leave the login form.
func (s Session) Active() bool {
	return s.IsAuthenticated || s.IsGuest
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message, replaced by the next one.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

type Catalog struct {
	Books    []model.Book `json:"books"`
	Search   string       `json:"search"`
	Next     string       `json:"next,omitempty"`
	Previous string       `json:"previous,omitempty"`
}

type History struct {
	Records  []model.HistoryRecord `json:"records"`
	Next     string                `json:"next,omitempty"`
	Previous string                `json:"previous,omitempty"`
}

type State struct {
	View     View                 `json:"view"`
	Session  Session              `json:"session"`
	Profile  *model.Profile       `json:"profile,omitempty"`
	Catalog  Catalog              `json:"catalog"`
	Selected *model.Book          `json:"selected,omitempty"`
	Loans    []model.BorrowRecord `json:"loans"`
	History  History              `json:"history"`
	Notice   *Notice              `json:"notice,omitempty"`
	// Error is the inline message of the current form or list.
	Error string `json:"error,omitempty"`
}

func initialState() State {
	return State{
		View:    ViewLogin,
		Catalog: Catalog{Books: []model.Book{}},
		Loans:   []model.BorrowRecord{},
		History: History{Records: []model.HistoryRecord{}},
	}
}

func (s State) clone() State {
	out := s
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	if s.Selected != nil {
		b := cloneBook(*s.Selected)
		out.Selected = &b
	}
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	out.Catalog.Books = make([]model.Book, len(s.Catalog.Books))
	for i := range s.Catalog.Books {
		out.Catalog.Books[i] = cloneBook(s.Catalog.Books[i])
	}
	out.Loans = make([]model.BorrowRecord, len(s.Loans))
	for i := range s.Loans {
		out.Loans[i] = s.Loans[i]
		out.Loans[i].Book = cloneBook(s.Loans[i].Book)
	}
	out.History.Records = make([]model.HistoryRecord, len(s.History.Records))
	for i := range s.History.Records {
		out.History.Records[i] = s.History.Records[i]
		out.History.Records[i].Book = cloneBook(s.History.Records[i].Book)
	}
	return out
}

func cloneBook(b model.Book) model.Book {
	out := b
	if b.Publisher != nil {
		p := *b.Publisher
		out.Publisher = &p
	}
	if b.Authors != nil {
		out.Authors = make([]model.Author, len(b.Authors))
		copy(out.Authors, b.Authors)
	}
	if b.Categories != nil {
		out.Categories = make([]model.Category, len(b.Categories))
		copy(out.Categories, b.Categories)
	}
	return out
}

// Book returns the catalog entry with the given id.
func (s State) Book(id int) (model.Book, bool) {
	for _, b := range s.Catalog.Books {
		if b.ID == id {
			return b, true
		}
	}
	return model.Book{}, false
}
