package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/bugboard/api/internal/auth"
	"github.com/bugboard/api/internal/config"
	"github.com/bugboard/api/internal/database"
	"github.com/bugboard/api/internal/store"
	"github.com/samber/lo"
)

var flairs = []string{"UI", "Backend", "Crash", "Performance", ""}

var descriptions = []string{
	"Dashboard chart renders empty when all bugs share one flair",
	"Submitting a report with a long description truncates silently",
	"Status dropdown resets to Open after page refresh",
	"Login succeeds but redirect lands on a 404",
	"Email notification arrives twice for a single status change",
	"Closing a bug leaves it visible until a hard refresh",
}

func main() {
	users := flag.Int("users", 3, "Number of demo users to create")
	bugs := flag.Int("bugs", 12, "Number of demo bug reports to create")
	password := flag.String("password", "changeme", "Password for demo users")
	flag.Parse()

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	userStore := store.NewUserStore(db)
	bugStore := store.NewBugStore(db)

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	usernames := make([]string, 0, *users)
	for i := 1; i <= *users; i++ {
		username := fmt.Sprintf("demo%d", i)
		email := fmt.Sprintf("demo%d@bugboard.local", i)

		if _, err := userStore.Create(ctx, username, email, hash); err != nil {
			log.Printf("Skipping user %s: %v", username, err)
		} else {
			log.Printf("Created user %s", username)
		}
		usernames = append(usernames, username)
	}

	created := 0
	for i := 0; i < *bugs; i++ {
		username := usernames[i%len(usernames)]
		_, err := bugStore.Create(ctx, store.CreateBugParams{
			ReporterUsername: username,
			ReporterEmail:    fmt.Sprintf("%s@bugboard.local", username),
			Description:      descriptions[i%len(descriptions)],
			Flair:            flairs[i%len(flairs)],
		})
		if err != nil {
			log.Printf("Error creating bug %d: %v", i+1, err)
			continue
		}
		created++
	}

	usedFlairs := lo.Filter(flairs, func(f string, _ int) bool { return f != "" })
	log.Printf("Seeding complete. Users: %d, bugs created: %d, flairs: %s",
		*users, created, strings.Join(usedFlairs, ", "))
}
