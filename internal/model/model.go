package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type UserStatus string

const (
	StatusBorrowed  UserStatus = "BORROWED"
	StatusAvailable UserStatus = "AVAILABLE"
	StatusNoStock   UserStatus = "NO_STOCK"
	StatusNone      UserStatus = "NONE"
)

type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio,omitempty"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Publisher struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	ISBN            string     `json:"isbn"`
	Publisher       *Publisher `json:"publisher,omitempty"`
	Authors         []Author   `json:"authors"`
	Categories      []Category `json:"categories"`
	PublicationDate Date       `json:"publication_date"`
	Summary         string     `json:"summary"`
	Quantity        int        `json:"quantity"`
	CoverImage      string     `json:"cover_image,omitempty"`
	UserStatus      UserStatus `json:"user_status"`
}

func (b Book) AuthorNames() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func (b Book) CategoryNames() string {
	names := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// Action is what the catalog offers for a book.
type Action string

const (
	ActionBorrow      Action = "borrow"
	ActionReturn      Action = "return"
	ActionUnavailable Action = "unavailable"
	ActionLogin       Action = "login"
)

func (b Book) Action(guest bool) Action {
	switch {
	case guest:
		return ActionLogin
	case b.UserStatus == StatusBorrowed:
		return ActionReturn
	case b.UserStatus == StatusNoStock || b.Quantity <= 0:
		return ActionUnavailable
	default:
		return ActionBorrow
	}
}

// BorrowRecord is an open loan.
type BorrowRecord struct {
	ID         int  `json:"id"`
	Book       Book `json:"book"`
	BorrowDate Date `json:"borrow_date"`
	DueDate    Date `json:"due_date"`
	IsOverdue  bool `json:"is_overdue"`
}

// UnmarshalJSON also accepts a bare book, which some backends serve for open loans.
func (r *BorrowRecord) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID         int             `json:"id"`
		Book       json.RawMessage `json:"book"`
		BorrowDate Date            `json:"borrow_date"`
		DueDate    Date            `json:"due_date"`
		IsOverdue  bool            `json:"is_overdue"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(aux.Book) == 0 || bytes.Equal(aux.Book, []byte("null")) {
		var book Book
		if err := json.Unmarshal(b, &book); err != nil {
			return err
		}
		*r = BorrowRecord{ID: book.ID, Book: book}
		return nil
	}
	var book Book
	if err := json.Unmarshal(aux.Book, &book); err != nil {
		return err
	}
	*r = BorrowRecord{
		ID:         aux.ID,
		Book:       book,
		BorrowDate: aux.BorrowDate,
		DueDate:    aux.DueDate,
		IsOverdue:  aux.IsOverdue,
	}
	return nil
}

// HistoryRecord is a returned loan.
type HistoryRecord struct {
	ID         int  `json:"id"`
	Book       Book `json:"book"`
	BorrowDate Date `json:"borrow_date"`
	ReturnDate Date `json:"return_date"`
}

type Profile struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	IsStaff     bool   `json:"is_staff"`
}

type ProfileUpdate struct {
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=15"`
}

func (u ProfileUpdate) Empty() bool {
	return u.Email == nil && u.PhoneNumber == nil
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=150"`
	Password    string `json:"password" validate:"required"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,max=15"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoanResult is the borrow/return response; quantity and status are authoritative.
type LoanResult struct {
	Status     string     `json:"status,omitempty"`
	Message    string     `json:"message,omitempty"`
	Quantity   int        `json:"quantity"`
	UserStatus UserStatus `json:"user_status"`
}

// CatalogQuery selects a catalog page. A non-empty URL is a backend cursor and wins over
// Search.
type CatalogQuery struct {
	URL    string
	Search string
}

type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	date, err := time.Parse(time.DateOnly, s)
	if err != nil {
		date, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	d.Time = date
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return "-"
	}
	return d.Format(time.DateOnly)
}
