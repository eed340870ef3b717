package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePage(t *testing.T) {
	t.Parallel()
	type args struct {
		body string
	}
	tests := []struct {
		name    string
		args    args
		want    Page[Book]
		wantErr bool
	}{
		{
			name: "bare list",
			args: args{body: ` [{"id":1,"title":"Dune","quantity":3,"user_status":"AVAILABLE"}]`},
			want: Page[Book]{
				Kind:  Unpaginated,
				Items: []Book{{ID: 1, Title: "Dune", Quantity: 3, UserStatus: StatusAvailable}},
				Count: 1,
			},
		},
		{
			name: "envelope",
			args: args{body: `{"count":12,"next":"http://h/api/books/?page=3","previous":"http://h/api/books/?page=1","results":[{"id":2,"title":"Emma"}]}`},
			want: Page[Book]{
				Kind:     Paginated,
				Items:    []Book{{ID: 2, Title: "Emma"}},
				Count:    12,
				Next:     "http://h/api/books/?page=3",
				Previous: "http://h/api/books/?page=1",
			},
		},
		{
			name: "envelope with null cursors",
			args: args{body: `{"count":0,"next":null,"previous":null,"results":[]}`},
			want: Page[Book]{Kind: Paginated, Items: []Book{}},
		},
		{
			name: "empty list",
			args: args{body: `[]`},
			want: Page[Book]{Kind: Unpaginated, Items: []Book{}},
		},
		{
			name:    "object without results",
			args:    args{body: `{"detail":"Not found."}`},
			wantErr: true,
		},
		{
			name:    "scalar",
			args:    args{body: `"nope"`},
			wantErr: true,
		},
		{
			name:    "empty body",
			args:    args{body: ``},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodePage[Book]([]byte(tt.args.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBorrowRecord_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("nested book", func(t *testing.T) {
		var rec BorrowRecord
		body := `{"id":5,"book":{"id":9,"title":"Emma"},"borrow_date":"2024-03-01","due_date":"2024-03-15","is_overdue":true}`
		require.NoError(t, json.Unmarshal([]byte(body), &rec))
		assert.Equal(t, 5, rec.ID)
		assert.Equal(t, 9, rec.Book.ID)
		assert.Equal(t, "Emma", rec.Book.Title)
		assert.True(t, rec.IsOverdue)
		assert.Equal(t, "2024-03-15", rec.DueDate.String())
	})

	t.Run("bare book", func(t *testing.T) {
		var recs []BorrowRecord
		body := `[{"id":9,"title":"Emma","quantity":0,"user_status":"BORROWED"}]`
		require.NoError(t, json.Unmarshal([]byte(body), &recs))
		require.Len(t, recs, 1)
		assert.Equal(t, 9, recs[0].ID)
		assert.Equal(t, 9, recs[0].Book.ID)
		assert.Equal(t, StatusBorrowed, recs[0].Book.UserStatus)
		assert.True(t, recs[0].DueDate.IsZero())
	})
}

func TestBook_Action(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		book  Book
		guest bool
		want  Action
	}{
		{name: "guest", book: Book{Quantity: 3, UserStatus: StatusAvailable}, guest: true, want: ActionLogin},
		{name: "borrowed", book: Book{Quantity: 0, UserStatus: StatusBorrowed}, want: ActionReturn},
		{name: "no stock", book: Book{Quantity: 2, UserStatus: StatusNoStock}, want: ActionUnavailable},
		{name: "zero quantity", book: Book{Quantity: 0, UserStatus: StatusAvailable}, want: ActionUnavailable},
		{name: "available", book: Book{Quantity: 1, UserStatus: StatusAvailable}, want: ActionBorrow},
		{name: "missing status", book: Book{Quantity: 1}, want: ActionBorrow},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.book.Action(tt.guest))
		})
	}
}

func TestDate(t *testing.T) {
	t.Parallel()
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2023-10-01T12:30:00Z"`), &d))
	assert.True(t, d.Equal(time.Date(2023, 10, 1, 12, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2023-10-01", d.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	assert.Equal(t, "-", d.String())
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))
}

func TestBook_Names(t *testing.T) {
	t.Parallel()
	b := Book{
		Authors:    []Author{{Name: "Terry Pratchett"}, {Name: "Neil Gaiman"}},
		Categories: []Category{{Name: "Fantasy"}},
	}
	assert.Equal(t, "Terry Pratchett, Neil Gaiman", b.AuthorNames())
	assert.Equal(t, "Fantasy", b.CategoryNames())
	assert.Empty(t, Book{}.AuthorNames())
}
