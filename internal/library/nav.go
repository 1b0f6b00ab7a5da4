package library

// Tabs of the main content area.
const (
	TabBooks    = "books"
	TabChapters = "chapters"
)

// Modals the UI can open.
const (
	ModalNone        = ""
	ModalAddAuthor   = "add-author"
	ModalAddBook     = "add-book"
	ModalAddChapter  = "add-chapter"
	ModalEditAuthor  = "edit-author"
	ModalEditBook    = "edit-book"
	ModalEditChapter = "edit-chapter"
	ModalLogin       = "login"
)

// NavState is one viewer's navigation: the selected author and book, the
// active tab and the open modal. It is stored in the viewer's session.
type NavState struct {
	AuthorID      string `json:"viewAuthorId"`
	BookID        string `json:"viewBookId"`
	ActiveTab     string `json:"activeTab"`
	Modal         string `json:"modal,omitempty"`
	EditID        string `json:"editId,omitempty"`
	ChapterBookID string `json:"chapterBookId,omitempty"`
}

func NewNavState() NavState {
	return NavState{ActiveTab: TabBooks}
}

// HandleAuthorSelect shows the books of authorID.
func (n *NavState) HandleAuthorSelect(authorID string) {
	n.AuthorID = authorID
	n.BookID = ""
	n.ActiveTab = TabBooks
}

// HandleBookSelect shows the chapters of bookID.
func (n *NavState) HandleBookSelect(bookID string) {
	n.BookID = bookID
	n.ActiveTab = TabChapters
}

// HandleBackToBooks returns to the book list of the selected author.
func (n *NavState) HandleBackToBooks() {
	n.BookID = ""
	n.ActiveTab = TabBooks
}

// OpenModal opens modal; editID names the record for edit modals.
func (n *NavState) OpenModal(modal, editID string) {
	n.Modal = modal
	n.EditID = editID
	if modal != ModalAddChapter {
		n.ChapterBookID = ""
	}
}

func (n *NavState) CloseModal() {
	n.Modal = ModalNone
	n.EditID = ""
	n.ChapterBookID = ""
}

// AfterAuthorAdded selects the new author.
func (n *NavState) AfterAuthorAdded(authorID string) {
	n.CloseModal()
	n.HandleAuthorSelect(authorID)
}

// AfterBookAdded opens the add-chapter modal with the new book preselected.
func (n *NavState) AfterBookAdded(bookID string) {
	n.CloseModal()
	n.Modal = ModalAddChapter
	n.ChapterBookID = bookID
}

func (n *NavState) AfterAuthorRemoved(authorID string) {
	if n.AuthorID == authorID {
		n.AuthorID = ""
		n.BookID = ""
		n.ActiveTab = TabBooks
	}
}

func (n *NavState) AfterBookRemoved(bookID string) {
	if n.BookID == bookID {
		n.HandleBackToBooks()
	}
}

// normalize repairs a state decoded from an old or hand-crafted session.
func (n *NavState) normalize() {
	if n.ActiveTab != TabBooks && n.ActiveTab != TabChapters {
		n.ActiveTab = TabBooks
	}
}
