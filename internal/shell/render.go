package shell

import (
	"github.com/Astemirdum/library-client/internal/controller"
	"github.com/Astemirdum/library-client/internal/model"
)

var actionLabels = map[model.Action]string{
	model.ActionBorrow:      "borrow",
	model.ActionReturn:      "return",
	model.ActionUnavailable: "unavailable",
	model.ActionLogin:       "login to borrow",
}

// render prints the current view. A shown notice is dismissed.
func (s *Shell) render() {
	st := s.ctrl.Snapshot()
	if st.Error != "" {
		s.printf("! %s\n", st.Error)
	}
	if st.Notice != nil {
		s.printf("[%s] %s\n", st.Notice.Level, st.Notice.Text)
		s.ctrl.DismissNotice()
	}

	switch st.View {
	case controller.ViewLogin:
		s.printf("Log in with 'login', create an account with 'register' or browse with 'guest'.\n")
	case controller.ViewRegister:
		s.printf("Registering a new account. Type 'register' to fill the form or 'mode' to go back.\n")
	case controller.ViewHome:
		s.renderCatalog(st)
	case controller.ViewDetail:
		if st.Selected != nil {
			s.renderBook(*st.Selected, st.Session)
		}
	case controller.ViewProfile:
		s.renderProfile(st)
	}
}

func (s *Shell) renderCatalog(st controller.State) {
	who := st.Session.Username
	if st.Session.IsGuest {
		who = "guest"
	}
	s.printf("Signed in as %s", who)
	if st.Session.IsAdmin {
		s.printf(" (admin)")
	}
	s.printf("\n")
	if st.Catalog.Search != "" {
		s.printf("Search: %q\n", st.Catalog.Search)
	}
	if len(st.Catalog.Books) == 0 {
		s.printf("No books found.\n")
		return
	}
	for _, b := range st.Catalog.Books {
		s.printf("  #%-4d %-40s %-30s stock %-3d [%s]\n",
			b.ID, b.Title, b.AuthorNames(), b.Quantity, actionLabels[b.Action(st.Session.IsGuest)])
	}
	if st.Catalog.Previous != "" {
		s.printf("'prev' for the previous page. ")
	}
	if st.Catalog.Next != "" {
		s.printf("'next' for the next page.")
	}
	if st.Catalog.Previous != "" || st.Catalog.Next != "" {
		s.printf("\n")
	}
}

func (s *Shell) renderBook(b model.Book, sess controller.Session) {
	s.printf("%s\n", b.Title)
	s.printf("  Authors:     %s\n", b.AuthorNames())
	s.printf("  Categories:  %s\n", b.CategoryNames())
	if b.Publisher != nil {
		s.printf("  Publisher:   %s\n", b.Publisher.Name)
	}
	s.printf("  ISBN:        %s\n", b.ISBN)
	s.printf("  Published:   %s\n", b.PublicationDate)
	s.printf("  In stock:    %d\n", b.Quantity)
	if b.Summary != "" {
		s.printf("\n%s\n", b.Summary)
	}
	s.printf("\nAction: %s", actionLabels[b.Action(sess.IsGuest)])
	if sess.IsAdmin {
		s.printf(", delete %d", b.ID)
	}
	s.printf(". 'back' returns to the catalog.\n")
}

func (s *Shell) renderProfile(st controller.State) {
	if p := st.Profile; p != nil {
		s.printf("%s  email: %s  phone: %s\n", p.Username, p.Email, p.PhoneNumber)
	}
	s.printf("Current loans:\n")
	if len(st.Loans) == 0 {
		s.printf("  none\n")
	}
	for _, rec := range st.Loans {
		overdue := ""
		if rec.IsOverdue {
			overdue = " OVERDUE"
		}
		s.printf("  #%-4d %-40s due %s%s\n", rec.Book.ID, rec.Book.Title, rec.DueDate, overdue)
	}
	s.printf("History:\n")
	if len(st.History.Records) == 0 {
		s.printf("  none\n")
	}
	for _, rec := range st.History.Records {
		s.printf("  #%-4d %-40s %s .. %s\n", rec.Book.ID, rec.Book.Title, rec.BorrowDate, rec.ReturnDate)
	}
}
