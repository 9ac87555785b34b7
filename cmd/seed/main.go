package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"library-api/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// seedFile is the JSON catalog layout consumed by this tool. Category names
// on a book are resolved (and created if missing) during import.
type seedFile struct {
	Books []struct {
		library.Book
		Categories []string `json:"categories"`
	} `json:"books"`
	Members []library.Member `json:"members"`
	Staff   []library.Staff  `json:"staff"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <seed.json>\n", os.Args[0])
		os.Exit(1)
	}

	dbPath := os.Getenv("LIBRARY_DB")
	if dbPath == "" {
		dbPath = "library.db"
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading seed file: %v\n", err)
		os.Exit(1)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing seed file: %v\n", err)
		os.Exit(1)
	}

	manager, err := library.NewLibraryManager(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	successCount := 0
	errorCount := 0
	categoryIDs := map[string]int64{}

	for _, entry := range seed.Books {
		book := entry.Book
		fmt.Printf("Importing book: %s by %s... ", book.Title, book.Author)
		bookID, err := manager.AddBook(&book)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %d)\n", bookID)
		successCount++

		for _, name := range entry.Categories {
			catID, ok := categoryIDs[name]
			if !ok {
				catID, err = manager.AddCategory(name)
				if err != nil {
					fmt.Printf("  Warning: category %q: %v\n", name, err)
					continue
				}
				categoryIDs[name] = catID
			}
			if err := manager.AssignCategory(bookID, catID); err != nil {
				fmt.Printf("  Warning: assign %q: %v\n", name, err)
			}
		}
	}

	for i := range seed.Members {
		m := &seed.Members[i]
		fmt.Printf("Importing member: %s %s... ", m.FirstName, m.LastName)
		if id, err := manager.AddMember(m); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
		} else {
			fmt.Printf("SUCCESS (ID: %d)\n", id)
			successCount++
		}
	}

	for i := range seed.Staff {
		s := &seed.Staff[i]
		fmt.Printf("Importing staff: %s %s... ", s.FirstName, s.LastName)
		if id, err := manager.AddStaff(s); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
		} else {
			fmt.Printf("SUCCESS (ID: %d)\n", id)
			successCount++
		}
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d records\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)
}
