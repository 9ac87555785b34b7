package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-api/library"
)

var dbPath string

func main() {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Library circulation management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultDB := os.Getenv("LIBRARY_DB")
	if defaultDB == "" {
		defaultDB = "library.db"
	}
	root.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to the SQLite database")

	root.AddCommand(bookCmd(), categoryCmd(), memberCmd(), staffCmd(),
		loanCmd(), fineCmd(), reservationCmd(), sweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withManager opens the database for the duration of one command.
func withManager(fn func(*library.LibraryManager) error) error {
	mgr, err := library.NewLibraryManager(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer mgr.Close()
	return fn(mgr)
}

func parseID(arg, kind string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}

func parseDate(arg string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", arg)
	}
	return t, nil
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return string(bytePassword), nil
}

// ---------------------------------------------------------------------------
// book
// ---------------------------------------------------------------------------

func bookCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Manage the catalog"}

	var b library.Book
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				if b.AvailableCopies == 0 {
					b.AvailableCopies = b.TotalCopies
				}
				id, err := mgr.AddBook(&b)
				if err != nil {
					return err
				}
				fmt.Printf("Added book %d: %s\n", id, b.Title)
				return nil
			})
		},
	}
	add.Flags().StringVar(&b.ISBN, "isbn", "", "ISBN (required)")
	add.Flags().StringVar(&b.Title, "title", "", "title (required)")
	add.Flags().StringVar(&b.Author, "author", "", "author (required)")
	add.Flags().StringVar(&b.Genre, "genre", "", "genre")
	add.Flags().IntVar(&b.PublicationYear, "year", time.Now().Year(), "publication year")
	add.Flags().IntVar(&b.TotalCopies, "copies", 1, "total copies")
	add.MarkFlagRequired("isbn")
	add.MarkFlagRequired("title")
	add.MarkFlagRequired("author")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all books",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				books, err := mgr.GetAllBooks()
				if err != nil {
					return err
				}
				printBooks(books)
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <book-id>",
		Short: "Delete a book (refused while loans reference it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				return mgr.DeleteBook(id)
			})
		},
	}

	var filter library.BookFilter
	search := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				books, err := mgr.SearchBooks(filter)
				if err != nil {
					return err
				}
				printBooks(books)
				return nil
			})
		},
	}
	search.Flags().StringVar(&filter.Title, "title", "", "title substring")
	search.Flags().StringVar(&filter.Author, "author", "", "author substring")
	search.Flags().StringVar(&filter.Genre, "genre", "", "genre substring")
	search.Flags().StringVar(&filter.ISBN, "isbn", "", "exact ISBN")

	cmd.AddCommand(add, list, rm, search)
	return cmd
}

func printBooks(books []*library.Book) {
	fmt.Printf("%-5s %-15s %-35s %-25s %-6s %s\n", "ID", "ISBN", "Title", "Author", "Year", "Copies")
	for _, b := range books {
		fmt.Printf("%-5d %-15s %-35s %-25s %-6d %d/%d\n",
			b.BookID, b.ISBN, b.Title, b.Author, b.PublicationYear, b.AvailableCopies, b.TotalCopies)
	}
}

// ---------------------------------------------------------------------------
// category
// ---------------------------------------------------------------------------

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Manage categories"}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				id, err := mgr.AddCategory(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Added category %d: %s\n", id, args[0])
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				cats, err := mgr.GetAllCategories()
				if err != nil {
					return err
				}
				for _, c := range cats {
					fmt.Printf("%-5d %s\n", c.CategoryID, c.Name)
				}
				return nil
			})
		},
	}

	assign := &cobra.Command{
		Use:   "assign <book-id> <category-id>",
		Short: "Link a book to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			bookID, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			catID, err := parseID(args[1], "category")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				return mgr.AssignCategory(bookID, catID)
			})
		},
	}

	books := &cobra.Command{
		Use:   "books <category-id>",
		Short: "List books in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			catID, err := parseID(args[0], "category")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				bs, err := mgr.GetBooksByCategory(catID)
				if err != nil {
					return err
				}
				printBooks(bs)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, assign, books)
	return cmd
}

// ---------------------------------------------------------------------------
// member
// ---------------------------------------------------------------------------

func memberCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "member", Short: "Manage members"}

	var m library.Member
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				id, err := mgr.AddMember(&m)
				if err != nil {
					return err
				}
				fmt.Printf("Added member %d: %s %s\n", id, m.FirstName, m.LastName)
				return nil
			})
		},
	}
	add.Flags().StringVar(&m.FirstName, "first", "", "first name (required)")
	add.Flags().StringVar(&m.LastName, "last", "", "last name (required)")
	add.Flags().StringVar(&m.Email, "email", "", "email (required)")
	add.Flags().StringVar(&m.Phone, "phone", "", "phone number")
	add.Flags().StringVar(&m.Address, "address", "", "address")
	add.MarkFlagRequired("first")
	add.MarkFlagRequired("last")
	add.MarkFlagRequired("email")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				members, err := mgr.GetAllMembers()
				if err != nil {
					return err
				}
				fmt.Printf("%-5s %-20s %-30s %s\n", "ID", "Name", "Email", "Status")
				for _, mb := range members {
					fmt.Printf("%-5d %-20s %-30s %s\n",
						mb.MemberID, mb.FirstName+" "+mb.LastName, mb.Email, mb.Status)
				}
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <member-id>",
		Short: "Delete a member (refused while loans reference it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "member")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				return mgr.DeleteMember(id)
			})
		},
	}

	status := &cobra.Command{
		Use:   "status <member-id> <Active|Expired|Suspended>",
		Short: "Set membership status",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "member")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				return mgr.SetMemberStatus(id, library.MembershipStatus(args[1]))
			})
		},
	}

	cmd.AddCommand(add, list, rm, status)
	return cmd
}

// ---------------------------------------------------------------------------
// staff
// ---------------------------------------------------------------------------

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "staff", Short: "Manage staff accounts"}

	var s library.Staff
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a staff record",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				id, err := mgr.AddStaff(&s)
				if err != nil {
					return err
				}
				fmt.Printf("Added staff %d: %s %s\n", id, s.FirstName, s.LastName)
				return nil
			})
		},
	}
	add.Flags().StringVar(&s.FirstName, "first", "", "first name (required)")
	add.Flags().StringVar(&s.LastName, "last", "", "last name (required)")
	add.Flags().StringVar(&s.Email, "email", "", "email (required)")
	add.Flags().StringVar(&s.Role, "role", "", "role")
	add.MarkFlagRequired("first")
	add.MarkFlagRequired("last")
	add.MarkFlagRequired("email")

	list := &cobra.Command{
		Use:   "list",
		Short: "List staff",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				staff, err := mgr.GetAllStaff()
				if err != nil {
					return err
				}
				fmt.Printf("%-5s %-20s %-30s %s\n", "ID", "Name", "Email", "Role")
				for _, st := range staff {
					fmt.Printf("%-5d %-20s %-30s %s\n",
						st.StaffID, st.FirstName+" "+st.LastName, st.Email, st.Role)
				}
				return nil
			})
		},
	}

	setPassword := &cobra.Command{
		Use:   "set-password <staff-id>",
		Short: "Set a staff password",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "staff")
			if err != nil {
				return err
			}
			password, err := readPassword("New password: ")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				return mgr.SetStaffPassword(id, password)
			})
		},
	}

	login := &cobra.Command{
		Use:   "login <staff-id>",
		Short: "Verify staff credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "staff")
			if err != nil {
				return err
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				if err := mgr.AuthenticateStaff(id, password); err != nil {
					return err
				}
				fmt.Println("Credentials OK.")
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, setPassword, login)
	return cmd
}

// ---------------------------------------------------------------------------
// loan
// ---------------------------------------------------------------------------

func loanCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "loan", Short: "Manage loans"}

	var due string
	create := &cobra.Command{
		Use:   "create <book-id> <member-id> <staff-id>",
		Short: "Check out a copy",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			bookID, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			memberID, err := parseID(args[1], "member")
			if err != nil {
				return err
			}
			staffID, err := parseID(args[2], "staff")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				var loan *library.Loan
				if due != "" {
					dueDate, err := parseDate(due)
					if err != nil {
						return err
					}
					loan, err = mgr.CheckoutBookUntil(bookID, memberID, staffID, dueDate)
					if err != nil {
						return err
					}
				} else {
					var err error
					loan, err = mgr.CheckoutBook(bookID, memberID, staffID)
					if err != nil {
						return err
					}
				}
				fmt.Printf("Loan %d created, due %s\n", loan.LoanID, loan.DueDate.Format("2006-01-02"))
				return nil
			})
		},
	}
	create.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD, default today+14d)")

	ret := &cobra.Command{
		Use:   "return <loan-id>",
		Short: "Return a copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				loan, fulfilled, err := mgr.ReturnBook(id)
				if err != nil {
					return err
				}
				fmt.Printf("Loan %d returned.\n", loan.LoanID)
				if fulfilled != nil {
					fmt.Printf("Reservation %d for member %d is now fulfilled.\n",
						fulfilled.ReservationID, fulfilled.MemberID)
				}
				return nil
			})
		},
	}

	lost := &cobra.Command{
		Use:   "lost <loan-id>",
		Short: "Mark a loan lost",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				_, err := mgr.MarkLoanLost(id)
				return err
			})
		},
	}

	var memberID, bookID int64
	var activeOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List loans",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				var loans []*library.Loan
				var err error
				switch {
				case memberID != 0:
					loans, err = mgr.GetMemberLoans(memberID, activeOnly)
				case bookID != 0:
					loans, err = mgr.GetBookLoans(bookID, activeOnly)
				default:
					loans, err = mgr.GetAllLoans()
				}
				if err != nil {
					return err
				}
				fmt.Printf("%-5s %-6s %-8s %-10s %-10s %s\n", "ID", "Book", "Member", "Loaned", "Due", "Status")
				for _, l := range loans {
					fmt.Printf("%-5d %-6d %-8d %-10s %-10s %s\n",
						l.LoanID, l.BookID, l.MemberID,
						l.LoanDate.Format("2006-01-02"), l.DueDate.Format("2006-01-02"), l.Status)
				}
				return nil
			})
		},
	}
	list.Flags().Int64Var(&memberID, "member", 0, "filter by member")
	list.Flags().Int64Var(&bookID, "book", 0, "filter by book")
	list.Flags().BoolVar(&activeOnly, "active", false, "outstanding loans only")

	rm := &cobra.Command{
		Use:   "rm <loan-id>",
		Short: "Delete a settled loan (its fines cascade)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				return mgr.DeleteLoan(id)
			})
		},
	}

	cmd.AddCommand(create, ret, lost, list, rm)
	return cmd
}

// ---------------------------------------------------------------------------
// fine
// ---------------------------------------------------------------------------

func fineCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "fine", Short: "Manage fines"}

	issue := &cobra.Command{
		Use:   "issue <loan-id> <amount>",
		Short: "Issue a fine against a loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			loanID, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			return withManager(func(mgr *library.LibraryManager) error {
				f, err := mgr.IssueFine(loanID, amount)
				if err != nil {
					return err
				}
				fmt.Printf("Fine %d issued: %.2f\n", f.FineID, f.Amount)
				return nil
			})
		},
	}

	pay := &cobra.Command{
		Use:   "pay <fine-id>",
		Short: "Settle a fine as paid",
		Args:  cobra.ExactArgs(1),
		RunE:  settleFine(func(mgr *library.LibraryManager, id int64) (*library.Fine, error) { return mgr.PayFine(id) }),
	}
	waive := &cobra.Command{
		Use:   "waive <fine-id>",
		Short: "Settle a fine as waived",
		Args:  cobra.ExactArgs(1),
		RunE:  settleFine(func(mgr *library.LibraryManager, id int64) (*library.Fine, error) { return mgr.WaiveFine(id) }),
	}

	var loanID, memberID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List fines",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				var fines []*library.Fine
				var err error
				switch {
				case loanID != 0:
					fines, err = mgr.GetLoanFines(loanID)
				case memberID != 0:
					fines, err = mgr.GetMemberFines(memberID)
				default:
					return errors.New("one of --loan or --member is required")
				}
				if err != nil {
					return err
				}
				fmt.Printf("%-5s %-6s %-10s %-10s %s\n", "ID", "Loan", "Amount", "Issued", "Status")
				for _, f := range fines {
					fmt.Printf("%-5d %-6d %-10.2f %-10s %s\n",
						f.FineID, f.LoanID, f.Amount, f.IssueDate.Format("2006-01-02"), f.Status)
				}
				return nil
			})
		},
	}
	list.Flags().Int64Var(&loanID, "loan", 0, "filter by loan")
	list.Flags().Int64Var(&memberID, "member", 0, "filter by member")

	cmd.AddCommand(issue, pay, waive, list)
	return cmd
}

func settleFine(settle func(*library.LibraryManager, int64) (*library.Fine, error)) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		id, err := parseID(args[0], "fine")
		if err != nil {
			return err
		}
		return withManager(func(mgr *library.LibraryManager) error {
			f, err := settle(mgr, id)
			if err != nil {
				return err
			}
			fmt.Printf("Fine %d is now %s.\n", f.FineID, f.Status)
			return nil
		})
	}
}

// ---------------------------------------------------------------------------
// reservation
// ---------------------------------------------------------------------------

func reservationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "reservation", Short: "Manage holds"}

	add := &cobra.Command{
		Use:   "add <book-id> <member-id>",
		Short: "Place a hold on a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			bookID, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			memberID, err := parseID(args[1], "member")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				r, err := mgr.ReserveBook(bookID, memberID)
				if err != nil {
					return err
				}
				fmt.Printf("Reservation %d placed, expires %s\n",
					r.ReservationID, r.ExpiryDate.Format("2006-01-02"))
				return nil
			})
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel an active hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0], "reservation")
			if err != nil {
				return err
			}
			return withManager(func(mgr *library.LibraryManager) error {
				return mgr.CancelReservation(id)
			})
		},
	}

	var bookID, memberID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List active holds",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				var rs []*library.Reservation
				var err error
				switch {
				case bookID != 0:
					rs, err = mgr.GetBookReservations(bookID)
				case memberID != 0:
					rs, err = mgr.GetMemberReservations(memberID)
				default:
					return errors.New("one of --book or --member is required")
				}
				if err != nil {
					return err
				}
				fmt.Printf("%-5s %-6s %-8s %-10s %s\n", "ID", "Book", "Member", "Placed", "Expires")
				for _, r := range rs {
					fmt.Printf("%-5d %-6d %-8d %-10s %s\n",
						r.ReservationID, r.BookID, r.MemberID,
						r.ReservationDate.Format("2006-01-02"), r.ExpiryDate.Format("2006-01-02"))
				}
				return nil
			})
		},
	}
	list.Flags().Int64Var(&bookID, "book", 0, "filter by book")
	list.Flags().Int64Var(&memberID, "member", 0, "filter by member")

	cmd.AddCommand(add, cancel, list)
	return cmd
}

// ---------------------------------------------------------------------------
// sweep
// ---------------------------------------------------------------------------

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Apply date-based transitions (overdue loans, expired holds)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withManager(func(mgr *library.LibraryManager) error {
				overdue, expired, err := mgr.Sweep()
				if err != nil {
					return err
				}
				fmt.Printf("Marked %d loans overdue, %d reservations expired.\n", overdue, expired)
				return nil
			})
		},
	}
}
