// Command main runs the database seeder for Inkwell.
package main

import (
	"context"
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numStaff := flag.Int("staff", 3, "How many of the users are staff")
	numPosts := flag.Int("posts", 50, "Number of posts to create")
	comments := flag.Int("comments", 4, "Top-level comments per post")
	replies := flag.Int("reply-percent", 30, "Chance (0-100) that a comment gets a reply")
	maxDays := flag.Int("days", 30, "Spread created_at over this many past days")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:        *numUsers,
		NumStaff:        *numStaff,
		NumPosts:        *numPosts,
		CommentsPerPost: *comments,
		ReplyPercent:    *replies,
		ShouldClean:     *shouldClean,
		Factory: seed.FactoryOptions{
			MaxDays:  *maxDays,
			RandSeed: *randSeed,
		},
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Done: %d users, %d posts, %d comments, %d replies", res.Users, res.Posts, res.Comments, res.Replies)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
