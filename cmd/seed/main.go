// Command main runs the database seeder for Feira.
package main

import (
	"flag"
	"log"

	"feira/internal/config"
	"feira/internal/database"
	"feira/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numListings := flag.Int("listings", 120, "Number of listings to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store the demo password in plaintext (fast mode)")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d listings, clean=%v\n", *numUsers, *numListings, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.DefaultOptions()
	opts.Users = *numUsers
	opts.Listings = *numListings
	opts.Clean = *shouldClean
	opts.SkipBcrypt = *skipBcrypt

	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with test data.")
	log.Println("All test users have the password: password123")
}
